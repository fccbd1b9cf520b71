package store

import (
	"context"
	"errors"

	"evlog/internal/core"
)

// ErrNotFound is returned when a lookup misses, including lookups scoped
// to an owner who does not hold the row.
var ErrNotFound = errors.New("not found")

// Ports for the persistence adapters. All record and expense operations
// are scoped to a single owner except the fleet-level listings used by
// the admin overview and the community feed.
type (
	RecordStore interface {
		CreateRecord(ctx context.Context, rec core.ChargingRecord) (core.ChargingRecord, error)
		UpdateRecord(ctx context.Context, rec core.ChargingRecord) (core.ChargingRecord, error)
		DeleteRecord(ctx context.Context, ownerID, id string) error
		GetRecord(ctx context.Context, ownerID, id string) (core.ChargingRecord, error)
		ListRecords(ctx context.Context, ownerID string) ([]core.ChargingRecord, error)

		// Fleet-wide views.
		ListAllRecords(ctx context.Context) ([]core.ChargingRecord, error)
		ListFeatured(ctx context.Context) ([]core.ChargingRecord, error)
		SetFeatured(ctx context.Context, id string, featured bool) error

		// Export bookkeeping. Creating or updating a record clears its
		// sync mark so the worker picks it up again.
		ListUnsynced(ctx context.Context, limit int) ([]core.ChargingRecord, error)
		MarkSynced(ctx context.Context, id string, syncedAt int64) error
	}

	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.VariableExpense) (core.VariableExpense, error)
		DeleteExpense(ctx context.Context, ownerID, id string) error
		ListExpenses(ctx context.Context, ownerID string) ([]core.VariableExpense, error)
	}

	SettingsStore interface {
		// GetFixedExpenses reports ok=false when the owner has never
		// saved settings; callers fall back to the zero value.
		GetFixedExpenses(ctx context.Context, ownerID string) (fx core.FixedExpenses, ok bool, err error)
		PutFixedExpenses(ctx context.Context, fx core.FixedExpenses) error
	}

	// Store is the full persistence surface the HTTP server needs.
	Store interface {
		RecordStore
		ExpenseStore
		SettingsStore
	}
)
