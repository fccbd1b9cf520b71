package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"evlog/internal/core"
	"evlog/internal/store"
)

// Store keeps everything in process memory. It backs tests and the
// default single-binary deployment.
type Store struct {
	mu       sync.Mutex
	records  map[string]core.ChargingRecord
	expenses map[string]core.VariableExpense
	settings map[string]core.FixedExpenses
	syncedAt map[string]int64
}

func New() *Store {
	return &Store{
		records:  make(map[string]core.ChargingRecord),
		expenses: make(map[string]core.VariableExpense),
		settings: make(map[string]core.FixedExpenses),
		syncedAt: make(map[string]int64),
	}
}

func (s *Store) CreateRecord(_ context.Context, rec core.ChargingRecord) (core.ChargingRecord, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.ChargingRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	delete(s.syncedAt, rec.ID)
	return rec, nil
}

func (s *Store) UpdateRecord(_ context.Context, rec core.ChargingRecord) (core.ChargingRecord, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.ChargingRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[rec.ID]
	if !ok || existing.OwnerID != rec.OwnerID {
		return core.ChargingRecord{}, store.ErrNotFound
	}
	// Featured status is admin-controlled, not part of the owner's edit.
	rec.IsFeatured = existing.IsFeatured
	s.records[rec.ID] = rec
	delete(s.syncedAt, rec.ID)
	return rec, nil
}

func (s *Store) DeleteRecord(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.records[id]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(s.records, id)
	delete(s.syncedAt, id)
	return nil
}

func (s *Store) GetRecord(_ context.Context, ownerID, id string) (core.ChargingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok || rec.OwnerID != ownerID {
		return core.ChargingRecord{}, store.ErrNotFound
	}
	return rec, nil
}

func (s *Store) ListRecords(_ context.Context, ownerID string) ([]core.ChargingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ChargingRecord, 0)
	for _, rec := range s.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) ListAllRecords(_ context.Context) ([]core.ChargingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ChargingRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) ListFeatured(_ context.Context) ([]core.ChargingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ChargingRecord, 0)
	for _, rec := range s.records {
		if rec.IsFeatured {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) SetFeatured(_ context.Context, id string, featured bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.IsFeatured = featured
	s.records[id] = rec
	return nil
}

func (s *Store) ListUnsynced(_ context.Context, limit int) ([]core.ChargingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.ChargingRecord, 0)
	for id, rec := range s.records {
		if _, synced := s.syncedAt[id]; !synced {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) MarkSynced(_ context.Context, id string, syncedAt int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return store.ErrNotFound
	}
	s.syncedAt[id] = syncedAt
	return nil
}

func (s *Store) CreateExpense(_ context.Context, e core.VariableExpense) (core.VariableExpense, error) {
	if err := e.Validate(); err != nil {
		return core.VariableExpense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.expenses[id]
	if !ok || existing.OwnerID != ownerID {
		return store.ErrNotFound
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, ownerID string) ([]core.VariableExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.VariableExpense, 0)
	for _, e := range s.expenses {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) GetFixedExpenses(_ context.Context, ownerID string) (core.FixedExpenses, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fx, ok := s.settings[ownerID]
	return fx, ok, nil
}

func (s *Store) PutFixedExpenses(_ context.Context, fx core.FixedExpenses) error {
	if err := fx.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[fx.OwnerID] = fx
	return nil
}
