package core

import (
	"sort"
	"time"
)

// MonthBucket accumulates one calendar month of charging activity.
type MonthBucket struct {
	Month       string  `json:"month"`
	TotalAmount float64 `json:"totalAmount"`
	TotalKWH    float64 `json:"totalKwh"`
	Count       int     `json:"count"`
	Distance    float64 `json:"distance"`
}

// MonthlyBuckets groups ledger entries into calendar-month buckets keyed
// YYYY-MM in the given location and returns at most the six most recent
// months that have data, ascending. Months with no activity are absent,
// not zero-filled, so the window can span a longer wall-clock range.
func MonthlyBuckets(entries []LedgerEntry, loc *time.Location) []MonthBucket {
	byMonth := make(map[string]*MonthBucket)
	for _, e := range entries {
		key := MonthKey(e.Timestamp, loc)
		b, ok := byMonth[key]
		if !ok {
			b = &MonthBucket{Month: key}
			byMonth[key] = b
		}
		b.TotalAmount += e.TotalAmount
		b.TotalKWH += e.KWH
		b.Count++
		b.Distance += e.TripDistance
	}

	keys := make([]string, 0, len(byMonth))
	for k := range byMonth {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > 6 {
		keys = keys[len(keys)-6:]
	}

	buckets := make([]MonthBucket, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, *byMonth[k])
	}
	return buckets
}

// MonthSummary carries the per-month figures shown on the stats panel.
// Ratio fields are 0 whenever their denominator is not positive.
type MonthSummary struct {
	Month        string  `json:"month"`
	TotalAmount  float64 `json:"totalAmount"`
	TotalKWH     float64 `json:"totalKwh"`
	Count        int     `json:"count"`
	Distance     float64 `json:"distance"`
	AvgCostKWH   float64 `json:"avgCostPerKwh"`
	CostPerKm    float64 `json:"costPerKm"`
	Efficiency   float64 `json:"efficiency"`
	AvgPerCharge float64 `json:"avgPerCharge"`
}

// LatestSummary derives the summary for the most recent bucket with data.
// The second return is false when there are no buckets at all.
func LatestSummary(buckets []MonthBucket) (MonthSummary, bool) {
	if len(buckets) == 0 {
		return MonthSummary{}, false
	}
	b := buckets[len(buckets)-1]
	s := MonthSummary{
		Month:       b.Month,
		TotalAmount: b.TotalAmount,
		TotalKWH:    b.TotalKWH,
		Count:       b.Count,
		Distance:    b.Distance,
	}
	if b.TotalKWH > 0 {
		s.AvgCostKWH = b.TotalAmount / b.TotalKWH
		s.Efficiency = b.Distance / b.TotalKWH
	}
	if b.Distance > 0 {
		s.CostPerKm = b.TotalAmount / b.Distance
	}
	if b.Count > 0 {
		s.AvgPerCharge = b.TotalAmount / float64(b.Count)
	}
	return s, true
}
