package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"evlog/internal/amqp"
	"evlog/internal/export"
	"evlog/internal/store"
)

// SyncWorker mirrors charging records into the export sheet, both as
// sync messages arrive from the queue and by sweeping records the queue
// path missed.
type SyncWorker struct {
	records   store.RecordStore
	writer    export.RecordWriter
	batchSize int
}

func NewSyncWorker(records store.RecordStore, writer export.RecordWriter, batchSize int) *SyncWorker {
	return &SyncWorker{records: records, writer: writer, batchSize: batchSize}
}

// HandleSyncMessage processes a single record sync message. Upserts are
// fetched from the store and appended to the sheet; the sheet is an
// append-only audit log, so deletes only acknowledge the message.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.RecordSyncMessage) error {
	switch msg.Action {
	case amqp.ActionDelete:
		slog.InfoContext(ctx, "Record deleted upstream, keeping sheet history",
			"record_id", msg.RecordID)
		return nil
	case amqp.ActionUpsert:
		// fall through
	default:
		slog.WarnContext(ctx, "Dropping sync message with unknown action",
			"record_id", msg.RecordID, "action", msg.Action)
		return nil
	}

	rec, err := w.records.GetRecord(ctx, msg.OwnerID, msg.RecordID)
	if errors.Is(err, store.ErrNotFound) {
		// Record was deleted between publish and consume; nothing to
		// export and nothing to retry.
		slog.WarnContext(ctx, "Record vanished before sync", "record_id", msg.RecordID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get record %s: %w", msg.RecordID, err)
	}

	ref, err := w.writer.Append(ctx, rec)
	if err != nil {
		return fmt.Errorf("append record %s to sheet: %w", msg.RecordID, err)
	}

	if err := w.records.MarkSynced(ctx, rec.ID, time.Now().UnixMilli()); err != nil {
		// The row is already in the sheet; a stale mark only means the
		// sweep appends it once more.
		slog.WarnContext(ctx, "Failed to mark record synced", "record_id", rec.ID, "error", err)
	}

	slog.InfoContext(ctx, "Record exported",
		"record_id", msg.RecordID,
		"owner", msg.OwnerID,
		"sheet_ref", ref)
	return nil
}

// ProcessPendingRecords exports records that never made it through the
// queue path, up to one batch per call. Per-record failures are logged
// and skipped so one bad row cannot stall the sweep.
func (w *SyncWorker) ProcessPendingRecords(ctx context.Context) error {
	pending, err := w.records.ListUnsynced(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced records: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	exported := 0
	for _, rec := range pending {
		ref, err := w.writer.Append(ctx, rec)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to export pending record",
				"record_id", rec.ID, "error", err)
			continue
		}
		if err := w.records.MarkSynced(ctx, rec.ID, time.Now().UnixMilli()); err != nil {
			slog.WarnContext(ctx, "Failed to mark record synced", "record_id", rec.ID, "error", err)
		}
		slog.InfoContext(ctx, "Pending record exported", "record_id", rec.ID, "sheet_ref", ref)
		exported++
	}

	slog.InfoContext(ctx, "Pending sweep finished",
		"pending", len(pending), "exported", exported)
	return nil
}

// StartupExportCheck reports stored history and drains any backlog left
// from previous downtime before the consumer starts.
func (w *SyncWorker) StartupExportCheck(ctx context.Context) error {
	records, err := w.records.ListAllRecords(ctx)
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}
	slog.InfoContext(ctx, "Sync worker ready", "stored_records", len(records))
	return w.ProcessPendingRecords(ctx)
}
