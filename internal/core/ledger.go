package core

import "sort"

// LedgerEntry is a charging record annotated with the distance covered
// since the previous odometer reading.
type LedgerEntry struct {
	ChargingRecord
	TripDistance float64 `json:"tripDistance"`
}

// BuildLedger orders one owner's records ascending by timestamp (stable,
// so equal timestamps keep their input order) and derives a trip distance
// for each from the running last-known odometer.
//
// The sentinel odometer 0 means "not recorded": it never produces a
// distance and never overwrites the running value. A reading at or below
// the running value (reset, correction, out-of-sequence entry) yields
// distance 0 but becomes the new reference point. The whole derivation is
// recomputed from scratch on every call so that edits and deletions
// anywhere in the history stay consistent.
func BuildLedger(records []ChargingRecord) []LedgerEntry {
	sorted := make([]ChargingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	entries := make([]LedgerEntry, 0, len(sorted))
	lastOdometer := 0.0
	for _, r := range sorted {
		trip := 0.0
		if r.Odometer > 0 {
			if lastOdometer > 0 && r.Odometer > lastOdometer {
				trip = r.Odometer - lastOdometer
			}
			lastOdometer = r.Odometer
		}
		entries = append(entries, LedgerEntry{ChargingRecord: r, TripDistance: trip})
	}
	return entries
}

// Descending returns a most-recent-first copy of a ledger, the order list
// views display records in.
func Descending(entries []LedgerEntry) []LedgerEntry {
	out := make([]LedgerEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// TripBefore computes the trip distance and cost per km for a single
// record against its chronological predecessor: the nearest
// earlier-timestamped record with a positive odometer, regardless of any
// filter applied to the displayed list. Both values are 0 when no valid
// predecessor exists or the odometer did not advance.
func TripBefore(records []ChargingRecord, rec ChargingRecord) (distance, costPerKm float64) {
	if rec.Odometer <= 0 {
		return 0, 0
	}
	prevOdometer := 0.0
	prevTime := int64(0)
	for _, r := range records {
		if r.Timestamp >= rec.Timestamp || r.Odometer <= 0 {
			continue
		}
		if r.Timestamp > prevTime || prevOdometer == 0 {
			prevTime = r.Timestamp
			prevOdometer = r.Odometer
		}
	}
	if prevOdometer <= 0 || rec.Odometer <= prevOdometer {
		return 0, 0
	}
	distance = rec.Odometer - prevOdometer
	return distance, rec.TotalAmount / distance
}
