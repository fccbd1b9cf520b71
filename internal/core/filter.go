package core

import (
	"sort"
	"strings"
	"time"
)

// FacetAll is the wildcard value for the plate and month facets.
const FacetAll = "all"

// Filter is a conjunction of independent facets over a ledger. Zero-value
// facets (empty string or FacetAll) match everything, so the zero Filter
// passes every entry.
type Filter struct {
	Search string
	Plate  string
	Month  string
}

// IsZero reports whether no facet is active.
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" &&
		(f.Plate == "" || f.Plate == FacetAll) &&
		(f.Month == "" || f.Month == FacetAll)
}

// Match evaluates all active facets against one entry. The text facet is a
// case-insensitive substring match on the location or the owner email, the
// plate facet an exact match on the normalized (uppercase) plate, and the
// month facet an exact match on the entry's YYYY-MM key in loc.
func (f Filter) Match(e LedgerEntry, loc *time.Location) bool {
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		if !strings.Contains(strings.ToLower(e.Location), s) &&
			!strings.Contains(strings.ToLower(e.OwnerEmail), s) {
			return false
		}
	}
	if f.Plate != "" && f.Plate != FacetAll {
		if e.LicensePlate != strings.ToUpper(strings.TrimSpace(f.Plate)) {
			return false
		}
	}
	if f.Month != "" && f.Month != FacetAll {
		if MonthKey(e.Timestamp, loc) != f.Month {
			return false
		}
	}
	return true
}

// Apply filters a ledger, preserving order. Trip distances are NOT
// recomputed over the filtered subset: each entry keeps the distance
// derived from the full history, so hiding records never changes the
// figures of the ones still shown.
func (f Filter) Apply(entries []LedgerEntry, loc *time.Location) []LedgerEntry {
	if f.IsZero() {
		out := make([]LedgerEntry, len(entries))
		copy(out, entries)
		return out
	}
	out := make([]LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if f.Match(e, loc) {
			out = append(out, e)
		}
	}
	return out
}

// UniquePlates returns the distinct normalized plates present in a
// ledger, sorted, for populating the plate facet.
func UniquePlates(entries []LedgerEntry) []string {
	return uniqueSorted(entries, func(e LedgerEntry) string {
		return strings.TrimSpace(e.LicensePlate)
	})
}

// UniqueMonths returns the distinct YYYY-MM keys present in a ledger,
// newest first, matching the month facet's dropdown order.
func UniqueMonths(entries []LedgerEntry, loc *time.Location) []string {
	months := uniqueSorted(entries, func(e LedgerEntry) string {
		return MonthKey(e.Timestamp, loc)
	})
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

func uniqueSorted(entries []LedgerEntry, key func(LedgerEntry) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, e := range entries {
		k := key(e)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
