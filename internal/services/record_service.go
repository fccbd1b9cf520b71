// Package services provides business logic and orchestration on top of
// the persistence and messaging adapters.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"evlog/internal/amqp"
	"evlog/internal/core"
	"evlog/internal/store"
)

// SyncPublisher publishes record sync messages. *amqp.Client satisfies
// it; a nil publisher disables sync.
type SyncPublisher interface {
	PublishRecordSync(ctx context.Context, ownerID, recordID, action string) error
}

// LedgerView is the filtered, display-ready slice of one owner's history
// together with the facet values the filter bar offers.
type LedgerView struct {
	Entries           []core.LedgerEntry `json:"entries"`
	Plates            []string           `json:"plates"`
	Months            []string           `json:"months"`
	FrequentLocations []string           `json:"frequentLocations"`
	Total             int                `json:"total"`
}

// StatsView bundles the trailing monthly buckets with the latest month's
// derived summary.
type StatsView struct {
	Buckets []core.MonthBucket `json:"buckets"`
	Latest  *core.MonthSummary `json:"latest,omitempty"`
}

// FeedItem is a featured record prepared for the public community feed.
type FeedItem struct {
	core.ChargingRecord
	MaskedOwner string `json:"maskedOwner"`
}

// RecordService orchestrates record operations across the store and the
// sync queue.
type RecordService struct {
	store      store.Store
	publisher  SyncPublisher
	loc        *time.Location
	siteURL    string
	pickSlogan core.SloganPicker
}

func NewRecordService(st store.Store, publisher SyncPublisher, loc *time.Location, siteURL string) *RecordService {
	if loc == nil {
		loc = time.Local
	}
	return &RecordService{
		store:      st,
		publisher:  publisher,
		loc:        loc,
		siteURL:    siteURL,
		pickSlogan: rand.Intn,
	}
}

// WithSloganPicker overrides the share-text slogan selection, used by
// tests that need deterministic output.
func (s *RecordService) WithSloganPicker(pick core.SloganPicker) *RecordService {
	s.pickSlogan = pick
	return s
}

// Location returns the calendar the service buckets months in.
func (s *RecordService) Location() *time.Location {
	return s.loc
}

// CreateRecord saves a record and publishes a sync message. A publish
// failure is logged, never surfaced; the record is already stored.
func (s *RecordService) CreateRecord(ctx context.Context, rec core.ChargingRecord) (core.ChargingRecord, error) {
	created, err := s.store.CreateRecord(ctx, rec)
	if err != nil {
		return core.ChargingRecord{}, fmt.Errorf("save record: %w", err)
	}
	s.publish(ctx, created.OwnerID, created.ID, amqp.ActionUpsert)
	return created, nil
}

// UpdateRecord replaces an owner's record and publishes a sync message.
func (s *RecordService) UpdateRecord(ctx context.Context, rec core.ChargingRecord) (core.ChargingRecord, error) {
	updated, err := s.store.UpdateRecord(ctx, rec)
	if err != nil {
		return core.ChargingRecord{}, err
	}
	s.publish(ctx, updated.OwnerID, updated.ID, amqp.ActionUpsert)
	return updated, nil
}

// DeleteRecord removes an owner's record and publishes a delete message.
func (s *RecordService) DeleteRecord(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteRecord(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ctx, ownerID, id, amqp.ActionDelete)
	return nil
}

func (s *RecordService) publish(ctx context.Context, ownerID, recordID, action string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRecordSync(ctx, ownerID, recordID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"record_id", recordID, "action", action, "error", err)
	}
}

// GetRecord returns one of the owner's records.
func (s *RecordService) GetRecord(ctx context.Context, ownerID, id string) (core.ChargingRecord, error) {
	return s.store.GetRecord(ctx, ownerID, id)
}

// Ledger derives the owner's full chronological ledger, applies the
// filter and returns the entries most recent first along with the facet
// values. Distances always come from the unfiltered history.
func (s *RecordService) Ledger(ctx context.Context, ownerID string, filter core.Filter) (LedgerView, error) {
	records, err := s.store.ListRecords(ctx, ownerID)
	if err != nil {
		return LedgerView{}, fmt.Errorf("list records: %w", err)
	}

	full := core.BuildLedger(records)
	filtered := filter.Apply(full, s.loc)

	return LedgerView{
		Entries:           core.Descending(filtered),
		Plates:            core.UniquePlates(full),
		Months:            core.UniqueMonths(full, s.loc),
		FrequentLocations: core.FrequentLocations(records),
		Total:             len(full),
	}, nil
}

// Stats returns the trailing monthly buckets and the latest summary.
func (s *RecordService) Stats(ctx context.Context, ownerID string) (StatsView, error) {
	records, err := s.store.ListRecords(ctx, ownerID)
	if err != nil {
		return StatsView{}, fmt.Errorf("list records: %w", err)
	}

	buckets := core.MonthlyBuckets(core.BuildLedger(records), s.loc)
	view := StatsView{Buckets: buckets}
	if summary, ok := core.LatestSummary(buckets); ok {
		view.Latest = &summary
	}
	return view, nil
}

// Breakdown computes the three-way spend split for the month containing
// ref. Owners without saved settings get a zero fixed share.
func (s *RecordService) Breakdown(ctx context.Context, ownerID string, ref time.Time) (core.Breakdown, error) {
	records, err := s.store.ListRecords(ctx, ownerID)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("list records: %w", err)
	}
	expenses, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("list expenses: %w", err)
	}
	fx, _, err := s.store.GetFixedExpenses(ctx, ownerID)
	if err != nil {
		return core.Breakdown{}, fmt.Errorf("get fixed expenses: %w", err)
	}

	return core.MonthlyBreakdown(records, expenses, fx, ref, s.loc), nil
}

// ShareText composes the share blurb for one record, deriving its trip
// figures from the owner's full history.
func (s *RecordService) ShareText(ctx context.Context, ownerID, recordID string) (string, error) {
	rec, err := s.store.GetRecord(ctx, ownerID, recordID)
	if err != nil {
		return "", err
	}
	records, err := s.store.ListRecords(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("list records: %w", err)
	}

	distance, costPerKm := core.TripBefore(records, rec)
	return core.ShareText(rec, distance, costPerKm, s.siteURL, s.pickSlogan), nil
}

// feedLimit caps the public feed at the most recent featured records.
const feedLimit = 20

// FeaturedFeed returns the featured records for the public community
// feed, most recent first, with owner emails masked.
func (s *RecordService) FeaturedFeed(ctx context.Context) ([]FeedItem, error) {
	records, err := s.store.ListFeatured(ctx)
	if err != nil {
		return nil, fmt.Errorf("list featured: %w", err)
	}

	entries := core.Descending(core.BuildLedger(records))
	if len(entries) > feedLimit {
		entries = entries[:feedLimit]
	}
	items := make([]FeedItem, 0, len(entries))
	for _, e := range entries {
		rec := e.ChargingRecord
		masked := core.MaskEmail(rec.OwnerEmail)
		// The feed is public; never leak the raw address or owner id.
		rec.OwnerEmail = ""
		rec.OwnerID = ""
		items = append(items, FeedItem{ChargingRecord: rec, MaskedOwner: masked})
	}
	return items, nil
}

// FleetOverview aggregates every owner's records for the admin panel.
func (s *RecordService) FleetOverview(ctx context.Context) (core.FleetStats, error) {
	records, err := s.store.ListAllRecords(ctx)
	if err != nil {
		return core.FleetStats{}, fmt.Errorf("list all records: %w", err)
	}
	return core.FleetOverview(records), nil
}

// SetFeatured toggles a record's presence on the community feed.
func (s *RecordService) SetFeatured(ctx context.Context, recordID string, featured bool) error {
	return s.store.SetFeatured(ctx, recordID, featured)
}

// CreateExpense saves a non-charging variable expense.
func (s *RecordService) CreateExpense(ctx context.Context, e core.VariableExpense) (core.VariableExpense, error) {
	return s.store.CreateExpense(ctx, e)
}

// DeleteExpense removes an owner's variable expense.
func (s *RecordService) DeleteExpense(ctx context.Context, ownerID, id string) error {
	return s.store.DeleteExpense(ctx, ownerID, id)
}

// ListExpenses returns the owner's variable expenses, optionally
// restricted to one month key.
func (s *RecordService) ListExpenses(ctx context.Context, ownerID, month string) ([]core.VariableExpense, error) {
	expenses, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if month == "" {
		return expenses, nil
	}
	filtered := make([]core.VariableExpense, 0, len(expenses))
	for _, e := range expenses {
		if core.MonthKey(e.Timestamp, s.loc) == month {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// GetFixedExpenses returns the owner's saved settings, zero value when
// none were saved yet.
func (s *RecordService) GetFixedExpenses(ctx context.Context, ownerID string) (core.FixedExpenses, error) {
	fx, ok, err := s.store.GetFixedExpenses(ctx, ownerID)
	if err != nil {
		return core.FixedExpenses{}, err
	}
	if !ok {
		return core.FixedExpenses{OwnerID: ownerID}, nil
	}
	return fx, nil
}

// PutFixedExpenses stores the owner's settings, stamping LastUpdated.
func (s *RecordService) PutFixedExpenses(ctx context.Context, fx core.FixedExpenses) error {
	fx.LastUpdated = time.Now().UnixMilli()
	return s.store.PutFixedExpenses(ctx, fx)
}

// Reminders lists the owner's upcoming payment and renewal obligations.
func (s *RecordService) Reminders(ctx context.Context, ownerID string, now time.Time) ([]Reminder, error) {
	fx, ok, err := s.store.GetFixedExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Reminder{}, nil
	}
	return UpcomingReminders(fx, now, s.loc), nil
}
