package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"evlog/internal/amqp"
	"evlog/internal/core"
	storemem "evlog/internal/store/memory"
)

type fakePublisher struct {
	calls []string
	err   error
}

func (p *fakePublisher) PublishRecordSync(_ context.Context, ownerID, recordID, action string) error {
	p.calls = append(p.calls, action+":"+recordID)
	return p.err
}

func newTestService(pub SyncPublisher) (*RecordService, *storemem.Store) {
	st := storemem.New()
	svc := NewRecordService(st, pub, time.UTC, "https://evlog.example.com")
	return svc, st
}

func seedRecord(t *testing.T, svc *RecordService, owner string, day int, odo float64) core.ChargingRecord {
	t.Helper()
	rec, err := svc.CreateRecord(context.Background(), core.ChargingRecord{
		OwnerID:     owner,
		OwnerEmail:  owner + "@example.com",
		Timestamp:   time.Date(2024, time.March, day, 10, 0, 0, 0, time.UTC).UnixMilli(),
		Location:    "Costco 台中店",
		Mode:        core.Metered,
		KWH:         40,
		TotalAmount: 320,
		Odometer:    odo,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return rec
}

func TestCreateRecordPublishesSync(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)

	rec := seedRecord(t, svc, "u1", 1, 10000)
	if len(pub.calls) != 1 || pub.calls[0] != amqp.ActionUpsert+":"+rec.ID {
		t.Errorf("publish calls = %v", pub.calls)
	}
}

func TestCreateRecordSurvivesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc, st := newTestService(pub)

	rec := seedRecord(t, svc, "u1", 1, 10000)
	if _, err := st.GetRecord(context.Background(), "u1", rec.ID); err != nil {
		t.Errorf("record should exist despite publish failure: %v", err)
	}
}

func TestDeleteRecordPublishesDelete(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newTestService(pub)
	rec := seedRecord(t, svc, "u1", 1, 10000)

	if err := svc.DeleteRecord(context.Background(), "u1", rec.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	last := pub.calls[len(pub.calls)-1]
	if last != amqp.ActionDelete+":"+rec.ID {
		t.Errorf("last publish = %q", last)
	}
}

func TestLedgerViewDescendingWithFacets(t *testing.T) {
	svc, _ := newTestService(nil)
	seedRecord(t, svc, "u1", 1, 10000)
	seedRecord(t, svc, "u1", 10, 10400)
	latest := seedRecord(t, svc, "u1", 20, 10900)

	view, err := svc.Ledger(context.Background(), "u1", core.Filter{})
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if view.Total != 3 || len(view.Entries) != 3 {
		t.Fatalf("view = %+v", view)
	}
	if view.Entries[0].ID != latest.ID {
		t.Errorf("entries not descending, first = %s", view.Entries[0].ID)
	}
	if view.Entries[0].TripDistance != 500 {
		t.Errorf("latest distance = %v, want 500", view.Entries[0].TripDistance)
	}
	if len(view.Months) != 1 || view.Months[0] != "2024-03" {
		t.Errorf("months facet = %v", view.Months)
	}
	if len(view.FrequentLocations) != 1 {
		t.Errorf("frequent locations = %v", view.FrequentLocations)
	}
}

func TestLedgerFilterKeepsFullHistoryTotal(t *testing.T) {
	svc, _ := newTestService(nil)
	seedRecord(t, svc, "u1", 1, 10000)
	seedRecord(t, svc, "u1", 10, 10400)

	view, err := svc.Ledger(context.Background(), "u1", core.Filter{Search: "no-such-place"})
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(view.Entries) != 0 {
		t.Errorf("expected empty filtered view, got %d", len(view.Entries))
	}
	if view.Total != 2 {
		t.Errorf("total should count full history, got %d", view.Total)
	}
}

func TestStats(t *testing.T) {
	svc, _ := newTestService(nil)
	seedRecord(t, svc, "u1", 1, 10000)
	seedRecord(t, svc, "u1", 10, 10400)

	stats, err := svc.Stats(context.Background(), "u1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats.Buckets) != 1 || stats.Buckets[0].Month != "2024-03" {
		t.Fatalf("buckets = %+v", stats.Buckets)
	}
	if stats.Latest == nil || stats.Latest.TotalAmount != 640 {
		t.Errorf("latest = %+v", stats.Latest)
	}
}

func TestStatsEmpty(t *testing.T) {
	svc, _ := newTestService(nil)
	stats, err := svc.Stats(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats.Buckets) != 0 || stats.Latest != nil {
		t.Errorf("expected empty stats, got %+v", stats)
	}
}

func TestBreakdown(t *testing.T) {
	svc, st := newTestService(nil)
	ctx := context.Background()
	seedRecord(t, svc, "u1", 5, 0)

	if _, err := svc.CreateExpense(ctx, core.VariableExpense{
		OwnerID:   "u1",
		Timestamp: time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC).UnixMilli(),
		Category:  core.CategoryParking,
		Amount:    150,
	}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if err := st.PutFixedExpenses(ctx, core.FixedExpenses{
		OwnerID: "u1", MonthlyLoan: 2000, MonthlyParking: 800,
		InsuranceAnnualCost: 6000, LicenseAnnualCost: 1200,
	}); err != nil {
		t.Fatalf("put fixed: %v", err)
	}

	ref := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	b, err := svc.Breakdown(ctx, "u1", ref)
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if b.ChargingCost != 320 || b.VariableCost != 150 || b.FixedCost != 3400 {
		t.Errorf("breakdown = %+v", b)
	}
	if b.Total != 3870 {
		t.Errorf("total = %v, want 3870", b.Total)
	}
}

func TestBreakdownWithoutSettings(t *testing.T) {
	svc, _ := newTestService(nil)
	seedRecord(t, svc, "u1", 5, 0)

	b, err := svc.Breakdown(context.Background(), "u1", time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if b.FixedCost != 0 || b.ChargingCost != 320 {
		t.Errorf("breakdown = %+v", b)
	}
}

func TestShareTextUsesFullHistory(t *testing.T) {
	svc, _ := newTestService(nil)
	svc.WithSloganPicker(func(n int) int { return 0 })

	seedRecord(t, svc, "u1", 1, 15000)
	rec := seedRecord(t, svc, "u1", 12, 15400)

	text, err := svc.ShareText(context.Background(), "u1", rec.ID)
	if err != nil {
		t.Fatalf("share text: %v", err)
	}
	if !strings.Contains(text, "🚗 行駛距離：400 km") {
		t.Errorf("missing distance line:\n%s", text)
	}
	if !strings.Contains(text, "🔗 https://evlog.example.com") {
		t.Errorf("missing site URL:\n%s", text)
	}
}

func TestFeaturedFeedMasksOwners(t *testing.T) {
	svc, st := newTestService(nil)
	ctx := context.Background()
	rec := seedRecord(t, svc, "michelle", 1, 10000)
	seedRecord(t, svc, "michelle", 5, 10200)

	if err := st.SetFeatured(ctx, rec.ID, true); err != nil {
		t.Fatalf("set featured: %v", err)
	}

	feed, err := svc.FeaturedFeed(ctx)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 1 {
		t.Fatalf("feed length = %d, want 1", len(feed))
	}
	item := feed[0]
	if item.MaskedOwner != "m***e" {
		t.Errorf("masked owner = %q, want m***e", item.MaskedOwner)
	}
	if item.OwnerEmail != "" || item.OwnerID != "" {
		t.Errorf("feed leaks owner identity: %+v", item)
	}
}

func TestFleetOverview(t *testing.T) {
	svc, _ := newTestService(nil)
	seedRecord(t, svc, "u1", 1, 0)
	seedRecord(t, svc, "u2", 2, 0)

	stats, err := svc.FleetOverview(context.Background())
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if stats.UniqueUsers != 2 || stats.TotalKWH != 80 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRemindersWithoutSettings(t *testing.T) {
	svc, _ := newTestService(nil)
	reminders, err := svc.Reminders(context.Background(), "u1", time.Now())
	if err != nil {
		t.Fatalf("reminders: %v", err)
	}
	if len(reminders) != 0 {
		t.Errorf("expected no reminders, got %v", reminders)
	}
}
