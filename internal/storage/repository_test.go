package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"evlog/internal/core"
	"evlog/internal/store"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "evlog.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRecordRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateRecord(ctx, core.ChargingRecord{
		OwnerID:      "u1",
		OwnerEmail:   "u1@example.com",
		Timestamp:    1709280000000,
		Location:     "家裡充電樁",
		LicensePlate: "abc-1234",
		Mode:         core.Timed,
		DurationMin:  45,
		KWH:          30,
		TotalAmount:  240,
		Odometer:     15000,
		Rating:       5,
		Notes:        "夜間充電",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned id")
	}
	if created.LicensePlate != "ABC-1234" {
		t.Errorf("plate = %q, want normalized ABC-1234", created.LicensePlate)
	}

	got, err := repo.GetRecord(ctx, "u1", created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != created {
		t.Errorf("round trip mismatch:\ngot:  %+v\nwant: %+v", got, created)
	}

	got.TotalAmount = 260
	updated, err := repo.UpdateRecord(ctx, got)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalAmount != 260 {
		t.Errorf("amount = %v, want 260", updated.TotalAmount)
	}

	if err := repo.DeleteRecord(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetRecord(ctx, "u1", created.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestSQLiteOwnerScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mine, err := repo.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u1", Timestamp: 1, Location: "A", Mode: core.Metered,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u2", Timestamp: 2, Location: "B", Mode: core.Metered,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := repo.GetRecord(ctx, "u2", mine.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("cross-owner get = %v, want ErrNotFound", err)
	}

	list, err := repo.ListRecords(ctx, "u1")
	if err != nil || len(list) != 1 {
		t.Errorf("owner list = %d, want 1 (%v)", len(list), err)
	}
	all, err := repo.ListAllRecords(ctx)
	if err != nil || len(all) != 2 {
		t.Errorf("fleet list = %d, want 2 (%v)", len(all), err)
	}
}

func TestSQLiteListOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, ts := range []int64{300, 100, 200} {
		if _, err := repo.CreateRecord(ctx, core.ChargingRecord{
			OwnerID: "u1", Timestamp: ts, Location: "A", Mode: core.Metered,
		}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := repo.ListRecords(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Timestamp > list[i].Timestamp {
			t.Fatalf("records not ascending by timestamp: %v", list)
		}
	}
}

func TestSQLiteFeatured(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u1", Timestamp: 1, Location: "A", Mode: core.Metered,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetFeatured(ctx, rec.ID, true); err != nil {
		t.Fatalf("set featured: %v", err)
	}
	featured, err := repo.ListFeatured(ctx)
	if err != nil || len(featured) != 1 {
		t.Fatalf("featured = %d, want 1 (%v)", len(featured), err)
	}
	if err := repo.SetFeatured(ctx, "missing", true); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("missing id = %v, want ErrNotFound", err)
	}
}

func TestSQLiteSyncBookkeeping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, err := repo.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u1", Timestamp: 100, Location: "A", Mode: core.Metered,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := repo.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u1", Timestamp: 200, Location: "B", Mode: core.Metered,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, err := repo.ListUnsynced(ctx, 0)
	if err != nil || len(pending) != 2 {
		t.Fatalf("unsynced = %d, %v, want 2", len(pending), err)
	}

	if err := repo.MarkSynced(ctx, first.ID, 1709280000000); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	pending, err = repo.ListUnsynced(ctx, 0)
	if err != nil || len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("unsynced after mark = %+v, %v, want only the second record", pending, err)
	}

	// An edit re-queues the record for export.
	first.Notes = "edited"
	if _, err := repo.UpdateRecord(ctx, first); err != nil {
		t.Fatalf("update: %v", err)
	}
	pending, err = repo.ListUnsynced(ctx, 0)
	if err != nil || len(pending) != 2 {
		t.Fatalf("unsynced after edit = %d, %v, want 2", len(pending), err)
	}

	if pending, err := repo.ListUnsynced(ctx, 1); err != nil || len(pending) != 1 {
		t.Errorf("limited list = %d, %v, want 1", len(pending), err)
	}

	if err := repo.MarkSynced(ctx, "missing", 1); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("mark missing = %v, want ErrNotFound", err)
	}
}

func TestSQLiteExpensesAndSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e, err := repo.CreateExpense(ctx, core.VariableExpense{
		OwnerID: "u1", Timestamp: 10, Category: core.CategoryMaintenance, Amount: 1500, Notes: "輪胎",
	})
	if err != nil || e.ID == "" {
		t.Fatalf("create expense: %v", err)
	}
	list, err := repo.ListExpenses(ctx, "u1")
	if err != nil || len(list) != 1 || list[0].Category != core.CategoryMaintenance {
		t.Fatalf("list expenses = %+v, %v", list, err)
	}

	if _, ok, err := repo.GetFixedExpenses(ctx, "u1"); ok || err != nil {
		t.Fatalf("expected no settings yet, ok=%v err=%v", ok, err)
	}
	fx := core.FixedExpenses{OwnerID: "u1", MonthlyLoan: 2000, InsuranceAnnualCost: 6000, LastUpdated: 99}
	if err := repo.PutFixedExpenses(ctx, fx); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	fx.MonthlyLoan = 1800
	if err := repo.PutFixedExpenses(ctx, fx); err != nil {
		t.Fatalf("upsert settings: %v", err)
	}
	got, ok, err := repo.GetFixedExpenses(ctx, "u1")
	if err != nil || !ok || got.MonthlyLoan != 1800 {
		t.Fatalf("settings = %+v, ok=%v, %v", got, ok, err)
	}
}
