package core

import (
	"testing"
	"time"
)

func ms(year int, month time.Month, day, hour int) int64 {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC).UnixMilli()
}

func TestBuildLedgerDistances(t *testing.T) {
	records := []ChargingRecord{
		{ID: "a", Timestamp: ms(2024, time.March, 1, 10), Odometer: 0},
		{ID: "b", Timestamp: ms(2024, time.March, 5, 10), Odometer: 15000},
		{ID: "c", Timestamp: ms(2024, time.March, 12, 10), Odometer: 15400},
		{ID: "d", Timestamp: ms(2024, time.March, 20, 10), Odometer: 15300},
	}

	entries := BuildLedger(records)
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	want := []float64{0, 0, 400, 0}
	for i, w := range want {
		if entries[i].TripDistance != w {
			t.Errorf("entry %d (%s): distance = %v, want %v", i, entries[i].ID, entries[i].TripDistance, w)
		}
	}
}

func TestBuildLedgerRegressionBecomesReference(t *testing.T) {
	// After a lower reading the running odometer moves backwards, so the
	// next higher reading measures from the corrected value.
	records := []ChargingRecord{
		{ID: "a", Timestamp: ms(2024, time.May, 1, 8), Odometer: 20000},
		{ID: "b", Timestamp: ms(2024, time.May, 8, 8), Odometer: 19000},
		{ID: "c", Timestamp: ms(2024, time.May, 15, 8), Odometer: 19250},
	}

	entries := BuildLedger(records)
	want := []float64{0, 0, 250}
	for i, w := range want {
		if entries[i].TripDistance != w {
			t.Errorf("entry %d: distance = %v, want %v", i, entries[i].TripDistance, w)
		}
	}
}

func TestBuildLedgerSkipsZeroOdometer(t *testing.T) {
	records := []ChargingRecord{
		{ID: "a", Timestamp: ms(2024, time.June, 1, 8), Odometer: 30000},
		{ID: "b", Timestamp: ms(2024, time.June, 5, 8), Odometer: 0},
		{ID: "c", Timestamp: ms(2024, time.June, 9, 8), Odometer: 30120},
	}

	entries := BuildLedger(records)
	if got := entries[2].TripDistance; got != 120 {
		t.Errorf("distance after unrecorded reading = %v, want 120", got)
	}
}

func TestBuildLedgerSortsAndIsStable(t *testing.T) {
	sameTime := ms(2024, time.April, 10, 12)
	records := []ChargingRecord{
		{ID: "late", Timestamp: ms(2024, time.April, 20, 12)},
		{ID: "first", Timestamp: sameTime},
		{ID: "second", Timestamp: sameTime},
		{ID: "early", Timestamp: ms(2024, time.April, 1, 12)},
	}

	entries := BuildLedger(records)
	gotOrder := []string{entries[0].ID, entries[1].ID, entries[2].ID, entries[3].ID}
	wantOrder := []string{"early", "first", "second", "late"}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("order = %v, want %v", gotOrder, wantOrder)
		}
	}

	// Input slice stays untouched.
	if records[0].ID != "late" {
		t.Errorf("input slice was reordered")
	}
}

func TestBuildLedgerEmpty(t *testing.T) {
	if entries := BuildLedger(nil); len(entries) != 0 {
		t.Errorf("expected empty ledger, got %d entries", len(entries))
	}
}

func TestDescending(t *testing.T) {
	entries := BuildLedger([]ChargingRecord{
		{ID: "a", Timestamp: ms(2024, time.July, 1, 8)},
		{ID: "b", Timestamp: ms(2024, time.July, 2, 8)},
		{ID: "c", Timestamp: ms(2024, time.July, 3, 8)},
	})

	desc := Descending(entries)
	if desc[0].ID != "c" || desc[2].ID != "a" {
		t.Errorf("descending order = [%s %s %s], want [c b a]", desc[0].ID, desc[1].ID, desc[2].ID)
	}
	if entries[0].ID != "a" {
		t.Errorf("Descending mutated its input")
	}
}

func TestTripBefore(t *testing.T) {
	history := []ChargingRecord{
		{ID: "a", Timestamp: ms(2024, time.March, 1, 10), Odometer: 15000, TotalAmount: 300},
		{ID: "b", Timestamp: ms(2024, time.March, 5, 10), Odometer: 0, TotalAmount: 250},
		{ID: "c", Timestamp: ms(2024, time.March, 12, 10), Odometer: 15400, TotalAmount: 200},
	}

	tests := []struct {
		name         string
		rec          ChargingRecord
		wantDistance float64
		wantCost     float64
	}{
		{
			name:         "skips unrecorded predecessor",
			rec:          history[2],
			wantDistance: 400,
			wantCost:     0.5,
		},
		{
			name:         "no predecessor",
			rec:          history[0],
			wantDistance: 0,
			wantCost:     0,
		},
		{
			name:         "record without odometer",
			rec:          history[1],
			wantDistance: 0,
			wantCost:     0,
		},
		{
			name:         "odometer behind predecessor",
			rec:          ChargingRecord{Timestamp: ms(2024, time.March, 20, 10), Odometer: 14900, TotalAmount: 100},
			wantDistance: 0,
			wantCost:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			distance, cost := TripBefore(history, tt.rec)
			if distance != tt.wantDistance {
				t.Errorf("distance = %v, want %v", distance, tt.wantDistance)
			}
			if cost != tt.wantCost {
				t.Errorf("costPerKm = %v, want %v", cost, tt.wantCost)
			}
		})
	}
}
