package worker

import (
	"context"
	"errors"
	"testing"

	"evlog/internal/amqp"
	"evlog/internal/core"
	exportmem "evlog/internal/export/memory"
	storemem "evlog/internal/store/memory"
)

func TestHandleSyncMessageUpsert(t *testing.T) {
	st := storemem.New()
	ex := exportmem.New()
	w := NewSyncWorker(st, ex, 50)
	ctx := context.Background()

	rec, err := st.CreateRecord(ctx, core.ChargingRecord{
		OwnerID:     "u1",
		Timestamp:   1709280000000,
		Location:    "Costco 台中店",
		Mode:        core.Metered,
		KWH:         40,
		TotalAmount: 320,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	msg := amqp.NewRecordSyncMessage("u1", rec.ID, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	exported := ex.Exported()
	if len(exported) != 1 || exported[0].ID != rec.ID {
		t.Errorf("exported = %+v, want the seeded record", exported)
	}
}

func TestHandleSyncMessageDeleteIsNoop(t *testing.T) {
	st := storemem.New()
	ex := exportmem.New()
	w := NewSyncWorker(st, ex, 50)

	msg := amqp.NewRecordSyncMessage("u1", "gone", amqp.ActionDelete)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("delete should ack cleanly: %v", err)
	}
	if len(ex.Exported()) != 0 {
		t.Error("delete must not export anything")
	}
}

func TestHandleSyncMessageVanishedRecord(t *testing.T) {
	w := NewSyncWorker(storemem.New(), exportmem.New(), 50)

	msg := amqp.NewRecordSyncMessage("u1", "missing", amqp.ActionUpsert)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("vanished record should not requeue: %v", err)
	}
}

func TestProcessPendingRecordsSweepsBacklog(t *testing.T) {
	st := storemem.New()
	ex := exportmem.New()
	w := NewSyncWorker(st, ex, 50)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.CreateRecord(ctx, core.ChargingRecord{
			OwnerID:     "u1",
			Timestamp:   1709280000000 + int64(i),
			Location:    "家裡",
			Mode:        core.Timed,
			KWH:         10,
			TotalAmount: 50,
		})
		if err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := len(ex.Exported()); got != 3 {
		t.Fatalf("exported %d records, want 3", got)
	}

	// A second sweep finds nothing left to export.
	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if got := len(ex.Exported()); got != 3 {
		t.Errorf("second sweep re-exported records, total = %d", got)
	}
}

func TestProcessPendingRecordsHonorsBatchSize(t *testing.T) {
	st := storemem.New()
	ex := exportmem.New()
	w := NewSyncWorker(st, ex, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := st.CreateRecord(ctx, core.ChargingRecord{
			OwnerID:   "u1",
			Timestamp: int64(i + 1),
			Location:  "市政府站",
			Mode:      core.Metered,
		}); err != nil {
			t.Fatalf("seed record: %v", err)
		}
	}

	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := len(ex.Exported()); got != 2 {
		t.Fatalf("exported %d records, want batch of 2", got)
	}
}

func TestHandleSyncMessageMarksSynced(t *testing.T) {
	st := storemem.New()
	ex := exportmem.New()
	w := NewSyncWorker(st, ex, 50)
	ctx := context.Background()

	rec, err := st.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u1", Timestamp: 1, Location: "家裡", Mode: core.Timed,
	})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}

	msg := amqp.NewRecordSyncMessage("u1", rec.ID, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	// Consumed records must not show up again in the pending sweep.
	if err := w.ProcessPendingRecords(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if got := len(ex.Exported()); got != 1 {
		t.Errorf("exported %d records, want 1", got)
	}
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, core.ChargingRecord) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleSyncMessageWriterFailurePropagates(t *testing.T) {
	st := storemem.New()
	ctx := context.Background()
	rec, _ := st.CreateRecord(ctx, core.ChargingRecord{
		OwnerID: "u1", Timestamp: 1, Location: "A", Mode: core.Metered,
	})

	w := NewSyncWorker(st, failingWriter{}, 50)
	msg := amqp.NewRecordSyncMessage("u1", rec.ID, amqp.ActionUpsert)
	if err := w.HandleSyncMessage(ctx, msg); err == nil {
		t.Fatal("expected writer failure to surface for requeue")
	}
}
