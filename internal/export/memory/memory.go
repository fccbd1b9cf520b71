package memory

import (
	"context"
	"fmt"
	"sync"

	"evlog/internal/core"
)

// Writer collects exported records in memory. It backs tests and runs
// where no spreadsheet is configured.
type Writer struct {
	mu    sync.Mutex
	items []core.ChargingRecord
}

func New() *Writer {
	return &Writer{}
}

// Append stores the record and returns a synthetic row reference.
func (w *Writer) Append(_ context.Context, rec core.ChargingRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = append(w.items, rec)
	return fmt.Sprintf("mem:%d", len(w.items)), nil
}

// Exported returns a copy of everything appended so far.
func (w *Writer) Exported() []core.ChargingRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]core.ChargingRecord(nil), w.items...)
}
