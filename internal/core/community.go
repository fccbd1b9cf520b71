package core

import (
	"sort"
	"strings"
)

// FrequentLocations returns the owner's most used charging locations,
// most frequent first, capped at four. Ties keep first-seen order.
func FrequentLocations(records []ChargingRecord) []string {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		if r.Location == "" {
			continue
		}
		if _, ok := counts[r.Location]; !ok {
			order = append(order, r.Location)
		}
		counts[r.Location]++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > 4 {
		order = order[:4]
	}
	return order
}

// MaskEmail redacts an address down to its first and last local-part
// characters for public feed display. Addresses too short to mask keep
// the local part with a trailing marker, and malformed or empty input
// falls back to a generic handle.
func MaskEmail(email string) string {
	if email == "" {
		return "車友用戶"
	}
	at := strings.Index(email, "@")
	if at < 0 {
		return "匿名車友"
	}
	user := email[:at]
	if len(user) <= 2 {
		return user + "***"
	}
	runes := []rune(user)
	return string(runes[0]) + "***" + string(runes[len(runes)-1])
}

// OwnerActivity is one owner's row in the fleet overview.
type OwnerActivity struct {
	Email      string `json:"email"`
	Count      int    `json:"count"`
	LastActive int64  `json:"lastActive"`
}

// FleetStats aggregates every owner's records for the admin overview.
type FleetStats struct {
	TotalKWH     float64         `json:"totalKwh"`
	TotalRevenue float64         `json:"totalRevenue"`
	UniqueUsers  int             `json:"uniqueUsers"`
	Owners       []OwnerActivity `json:"owners"`
}

// FleetOverview computes fleet-wide totals and a per-owner activity list
// sorted by most recent activity.
func FleetOverview(records []ChargingRecord) FleetStats {
	stats := FleetStats{Owners: []OwnerActivity{}}
	byOwner := make(map[string]*OwnerActivity)
	for _, r := range records {
		stats.TotalKWH += r.KWH
		stats.TotalRevenue += r.TotalAmount
		o, ok := byOwner[r.OwnerEmail]
		if !ok {
			o = &OwnerActivity{Email: r.OwnerEmail}
			byOwner[r.OwnerEmail] = o
		}
		o.Count++
		if r.Timestamp > o.LastActive {
			o.LastActive = r.Timestamp
		}
	}
	for _, o := range byOwner {
		stats.Owners = append(stats.Owners, *o)
	}
	sort.Slice(stats.Owners, func(i, j int) bool {
		if stats.Owners[i].LastActive != stats.Owners[j].LastActive {
			return stats.Owners[i].LastActive > stats.Owners[j].LastActive
		}
		return stats.Owners[i].Email < stats.Owners[j].Email
	})
	stats.UniqueUsers = len(stats.Owners)
	return stats
}

// QuickEstimate is the public calculator: projected session cost for a
// given energy amount at a per-kWh rate. Negative inputs clamp to 0.
func QuickEstimate(kwh, ratePerKWH float64) float64 {
	if kwh < 0 || ratePerKWH < 0 {
		return 0
	}
	return kwh * ratePerKWH
}
