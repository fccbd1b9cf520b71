package core

import "time"

// Breakdown is the three-way split of one month's vehicle spend.
// Percentages sum to 100 when Total is positive and are all 0 otherwise.
type Breakdown struct {
	Month         string  `json:"month"`
	ChargingCost  float64 `json:"chargingCost"`
	VariableCost  float64 `json:"variableCost"`
	FixedCost     float64 `json:"fixedCost"`
	Total         float64 `json:"total"`
	ChargingPct   float64 `json:"chargingPct"`
	VariablePct   float64 `json:"variablePct"`
	FixedPct      float64 `json:"fixedPct"`
	ChargingCount int     `json:"chargingCount"`
	VariableCount int     `json:"variableCount"`
}

// MonthlyFixedCost amortizes the recurring obligations into a flat
// monthly figure: loan and parking are already monthly, insurance and
// license are annual premiums spread over twelve months.
func MonthlyFixedCost(fx FixedExpenses) float64 {
	return fx.MonthlyLoan + fx.MonthlyParking +
		fx.InsuranceAnnualCost/12 + fx.LicenseAnnualCost/12
}

// MonthlyBreakdown splits the spend of the calendar month containing ref
// (in loc) across charging records, variable expenses and amortized fixed
// costs. The fixed share is charged in full for the month whenever any
// fixed obligation is configured, independent of charging activity.
func MonthlyBreakdown(records []ChargingRecord, expenses []VariableExpense, fx FixedExpenses, ref time.Time, loc *time.Location) Breakdown {
	month := MonthKeyOf(ref.In(loc).Year(), int(ref.In(loc).Month()))
	b := Breakdown{Month: month}

	for _, r := range records {
		if MonthKey(r.Timestamp, loc) != month {
			continue
		}
		b.ChargingCost += r.TotalAmount
		b.ChargingCount++
	}
	for _, e := range expenses {
		if MonthKey(e.Timestamp, loc) != month {
			continue
		}
		b.VariableCost += e.Amount
		b.VariableCount++
	}
	b.FixedCost = MonthlyFixedCost(fx)

	b.Total = b.ChargingCost + b.VariableCost + b.FixedCost
	if b.Total > 0 {
		b.ChargingPct = b.ChargingCost / b.Total * 100
		b.VariablePct = b.VariableCost / b.Total * 100
		b.FixedPct = b.FixedCost / b.Total * 100
	}
	return b
}
