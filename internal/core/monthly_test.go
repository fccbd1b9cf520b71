package core

import (
	"testing"
	"time"
)

func TestMonthlyBucketsAggregates(t *testing.T) {
	entries := BuildLedger([]ChargingRecord{
		{Timestamp: ms(2024, time.March, 2, 9), KWH: 40, TotalAmount: 320, Odometer: 10000},
		{Timestamp: ms(2024, time.March, 18, 9), KWH: 30, TotalAmount: 240, Odometer: 10300},
		{Timestamp: ms(2024, time.April, 5, 9), KWH: 50, TotalAmount: 380, Odometer: 10800},
	})

	buckets := MonthlyBuckets(entries, time.UTC)
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}

	march := buckets[0]
	if march.Month != "2024-03" {
		t.Errorf("first bucket month = %q, want 2024-03", march.Month)
	}
	if march.TotalAmount != 560 || march.TotalKWH != 70 || march.Count != 2 {
		t.Errorf("march totals = (%v, %v, %d), want (560, 70, 2)", march.TotalAmount, march.TotalKWH, march.Count)
	}
	if march.Distance != 300 {
		t.Errorf("march distance = %v, want 300", march.Distance)
	}

	april := buckets[1]
	if april.Month != "2024-04" || april.Distance != 500 {
		t.Errorf("april bucket = %+v", april)
	}
}

func TestMonthlyBucketsTrailingSix(t *testing.T) {
	var records []ChargingRecord
	// Nine consecutive months, with a gap month in the middle left empty.
	for m := 0; m < 9; m++ {
		if m == 4 {
			continue
		}
		records = append(records, ChargingRecord{
			Timestamp:   ms(2024, time.January+time.Month(m), 10, 9),
			KWH:         10,
			TotalAmount: 80,
		})
	}

	buckets := MonthlyBuckets(BuildLedger(records), time.UTC)
	if len(buckets) != 6 {
		t.Fatalf("expected 6 buckets, got %d", len(buckets))
	}
	if buckets[0].Month != "2024-03" {
		t.Errorf("oldest kept bucket = %q, want 2024-03", buckets[0].Month)
	}
	if buckets[len(buckets)-1].Month != "2024-09" {
		t.Errorf("newest bucket = %q, want 2024-09", buckets[len(buckets)-1].Month)
	}
	for i := 1; i < len(buckets); i++ {
		if buckets[i-1].Month >= buckets[i].Month {
			t.Errorf("buckets not ascending: %q before %q", buckets[i-1].Month, buckets[i].Month)
		}
	}
	for _, b := range buckets {
		if b.Month == "2024-05" {
			t.Errorf("empty month 2024-05 should be absent, not zero-filled")
		}
	}
}

func TestMonthlyBucketsTimezone(t *testing.T) {
	taipei := time.FixedZone("CST", 8*60*60)
	// 2024-03-31 22:00 UTC is already April in UTC+8.
	late := time.Date(2024, time.March, 31, 22, 0, 0, 0, time.UTC).UnixMilli()
	entries := BuildLedger([]ChargingRecord{{Timestamp: late, KWH: 10, TotalAmount: 80}})

	if got := MonthlyBuckets(entries, time.UTC)[0].Month; got != "2024-03" {
		t.Errorf("UTC bucket = %q, want 2024-03", got)
	}
	if got := MonthlyBuckets(entries, taipei)[0].Month; got != "2024-04" {
		t.Errorf("UTC+8 bucket = %q, want 2024-04", got)
	}
}

func TestLatestSummary(t *testing.T) {
	tests := []struct {
		name    string
		buckets []MonthBucket
		want    MonthSummary
		wantOK  bool
	}{
		{
			name: "full figures",
			buckets: []MonthBucket{
				{Month: "2024-03"},
				{Month: "2024-04", TotalAmount: 400, TotalKWH: 80, Count: 4, Distance: 500},
			},
			want: MonthSummary{
				Month:        "2024-04",
				TotalAmount:  400,
				TotalKWH:     80,
				Count:        4,
				Distance:     500,
				AvgCostKWH:   5,
				CostPerKm:    0.8,
				Efficiency:   6.25,
				AvgPerCharge: 100,
			},
			wantOK: true,
		},
		{
			name: "zero kwh keeps ratios at zero",
			buckets: []MonthBucket{
				{Month: "2024-04", TotalAmount: 200, TotalKWH: 0, Count: 2, Distance: 0},
			},
			want: MonthSummary{
				Month:        "2024-04",
				TotalAmount:  200,
				Count:        2,
				AvgPerCharge: 100,
			},
			wantOK: true,
		},
		{
			name: "distance without kwh stays guarded",
			buckets: []MonthBucket{
				{Month: "2024-05", TotalAmount: 100, TotalKWH: 0, Count: 1, Distance: 200},
			},
			want: MonthSummary{
				Month:        "2024-05",
				TotalAmount:  100,
				Count:        1,
				Distance:     200,
				CostPerKm:    0.5,
				AvgPerCharge: 100,
			},
			wantOK: true,
		},
		{
			name:   "empty",
			want:   MonthSummary{},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := LatestSummary(tt.buckets)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("summary = %+v, want %+v", got, tt.want)
			}
		})
	}
}
