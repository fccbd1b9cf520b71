// This file implements dueness checking for the fixed vehicle
// obligations: monthly pay days and annual document renewals. Each
// obligation kind has its own checker so new kinds slot in without
// touching the reminder assembly.

package services

import (
	"sort"
	"time"

	"evlog/internal/core"
)

// Reminder kinds.
const (
	ReminderLoan      = "loan"
	ReminderParking   = "parking"
	ReminderInsurance = "insurance"
	ReminderLicense   = "license"
)

// Horizons: pay days surface within a week, renewals within a month.
const (
	payDayHorizon = 7 * 24 * time.Hour
	expiryHorizon = 30 * 24 * time.Hour
)

// Reminder is one upcoming obligation.
type Reminder struct {
	Kind     string  `json:"kind"`
	Amount   float64 `json:"amount"`
	DueAt    int64   `json:"dueAt"` // epoch ms
	DaysLeft int     `json:"daysLeft"`
	Overdue  bool    `json:"overdue"`
}

// dueChecker computes the next due time for one obligation, or ok=false
// when the obligation is not configured.
type dueChecker interface {
	nextDue(fx core.FixedExpenses, now time.Time, loc *time.Location) (due time.Time, amount float64, ok bool)
	kind() string
	horizon() time.Duration
}

type loanChecker struct{}

func (loanChecker) kind() string { return ReminderLoan }
func (loanChecker) horizon() time.Duration { return payDayHorizon }
func (loanChecker) nextDue(fx core.FixedExpenses, now time.Time, loc *time.Location) (time.Time, float64, bool) {
	if fx.MonthlyLoan <= 0 || fx.MonthlyLoanPayDay == 0 {
		return time.Time{}, 0, false
	}
	return nextMonthlyDue(now, fx.MonthlyLoanPayDay, loc), fx.MonthlyLoan, true
}

type parkingChecker struct{}

func (parkingChecker) kind() string { return ReminderParking }
func (parkingChecker) horizon() time.Duration { return payDayHorizon }
func (parkingChecker) nextDue(fx core.FixedExpenses, now time.Time, loc *time.Location) (time.Time, float64, bool) {
	if fx.MonthlyParking <= 0 || fx.MonthlyParkingPayDay == 0 {
		return time.Time{}, 0, false
	}
	return nextMonthlyDue(now, fx.MonthlyParkingPayDay, loc), fx.MonthlyParking, true
}

type insuranceChecker struct{}

func (insuranceChecker) kind() string { return ReminderInsurance }
func (insuranceChecker) horizon() time.Duration { return expiryHorizon }
func (insuranceChecker) nextDue(fx core.FixedExpenses, _ time.Time, loc *time.Location) (time.Time, float64, bool) {
	if fx.InsuranceExpiry == 0 {
		return time.Time{}, 0, false
	}
	return time.UnixMilli(fx.InsuranceExpiry).In(loc), fx.InsuranceAnnualCost, true
}

type licenseChecker struct{}

func (licenseChecker) kind() string { return ReminderLicense }
func (licenseChecker) horizon() time.Duration { return expiryHorizon }
func (licenseChecker) nextDue(fx core.FixedExpenses, _ time.Time, loc *time.Location) (time.Time, float64, bool) {
	if fx.LicenseExpiry == 0 {
		return time.Time{}, 0, false
	}
	return time.UnixMilli(fx.LicenseExpiry).In(loc), fx.LicenseAnnualCost, true
}

var reminderCheckers = []dueChecker{
	loanChecker{},
	parkingChecker{},
	insuranceChecker{},
	licenseChecker{},
}

// nextMonthlyDue finds the next occurrence of a day-of-month, clamping
// to the last day of months too short for the target.
func nextMonthlyDue(now time.Time, payDay int, loc *time.Location) time.Time {
	now = now.In(loc)
	year, month := now.Year(), now.Month()

	// Midnight of the current calendar day in loc. Truncate would cut
	// at UTC epoch-day boundaries and misplace the day edge elsewhere.
	today := time.Date(year, month, now.Day(), 0, 0, 0, 0, loc)
	due := monthlyDueIn(year, month, payDay, loc)
	if due.Before(today) {
		due = monthlyDueIn(year, month+1, payDay, loc)
	}
	return due
}

func monthlyDueIn(year int, month time.Month, payDay int, loc *time.Location) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if payDay > lastDay {
		payDay = lastDay
	}
	return time.Date(year, month, payDay, 0, 0, 0, 0, loc)
}

// UpcomingReminders lists the obligations due within each kind's
// horizon, soonest first. An expiry already in the past is kept and
// flagged overdue rather than dropped.
func UpcomingReminders(fx core.FixedExpenses, now time.Time, loc *time.Location) []Reminder {
	if loc == nil {
		loc = time.Local
	}
	now = now.In(loc)

	out := make([]Reminder, 0, len(reminderCheckers))
	for _, c := range reminderCheckers {
		due, amount, ok := c.nextDue(fx, now, loc)
		if !ok {
			continue
		}
		until := due.Sub(now)
		if until > c.horizon() {
			continue
		}
		daysLeft := int(until.Hours() / 24)
		if daysLeft < 0 {
			daysLeft = 0
		}
		out = append(out, Reminder{
			Kind:     c.kind(),
			Amount:   amount,
			DueAt:    due.UnixMilli(),
			DaysLeft: daysLeft,
			Overdue:  due.Before(now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueAt < out[j].DueAt })
	return out
}
