package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Metered ChargeMode = "metered"
	Timed   ChargeMode = "timed"
)

const (
	CategoryParking     ExpenseCategory = "parking"
	CategoryToll        ExpenseCategory = "toll"
	CategoryMaintenance ExpenseCategory = "maintenance"
	CategoryDetailing   ExpenseCategory = "detailing"
	CategoryFine        ExpenseCategory = "fine"
	CategoryOther       ExpenseCategory = "other"
)

type (
	ChargeMode      string
	ExpenseCategory string

	// ChargingRecord is one charging event as supplied by the storage
	// collaborator. All numeric fields are assumed well-typed; the engine
	// degrades to zero values instead of erroring on odd magnitudes.
	ChargingRecord struct {
		ID           string     `json:"id,omitempty"`
		OwnerID      string     `json:"uid"`
		OwnerEmail   string     `json:"userEmail"`
		Timestamp    int64      `json:"timestamp"` // epoch milliseconds, sole ordering key
		Location     string     `json:"location"`
		LicensePlate string     `json:"licensePlate,omitempty"`
		Mode         ChargeMode `json:"mode"`
		DurationMin  int        `json:"duration,omitempty"`
		KWH          float64    `json:"kwh"`
		TotalAmount  float64    `json:"total_amount"`
		CostPerKWH   float64    `json:"cost_per_kwh"`
		Odometer     float64    `json:"odometer"` // 0 means "not recorded"
		Rating       int        `json:"rating,omitempty"`
		Notes        string     `json:"notes,omitempty"`
		IsFeatured   bool       `json:"isFeatured,omitempty"`
	}

	// VariableExpense is an ad-hoc non-charging cost.
	VariableExpense struct {
		ID         string          `json:"id,omitempty"`
		OwnerID    string          `json:"uid"`
		OwnerEmail string          `json:"userEmail"`
		Timestamp  int64           `json:"timestamp"`
		Category   ExpenseCategory `json:"category"`
		Amount     float64         `json:"amount"`
		Notes      string          `json:"notes,omitempty"`
	}

	// FixedExpenses holds an owner's recurring commitments. At most one
	// lives per owner; the storage layer upserts.
	FixedExpenses struct {
		OwnerID              string  `json:"uid"`
		OwnerEmail           string  `json:"userEmail"`
		MonthlyLoan          float64 `json:"monthlyLoan"`
		MonthlyLoanPayDay    int     `json:"monthlyLoanPayDay,omitempty"` // 1-31, 0 = unset
		MonthlyParking       float64 `json:"monthlyParking"`
		MonthlyParkingPayDay int     `json:"monthlyParkingPayDay,omitempty"`
		InsuranceExpiry      int64   `json:"insuranceExpiry,omitempty"` // epoch ms, 0 = unset
		InsuranceAnnualCost  float64 `json:"insuranceAnnualCost"`
		LicenseExpiry        int64   `json:"licenseExpiry,omitempty"`
		LicenseAnnualCost    float64 `json:"licenseAnnualCost"`
		LastUpdated          int64   `json:"lastUpdated"`
	}
)

var (
	ErrMissingOwner    = errors.New("missing owner id")
	ErrMissingLocation = errors.New("missing location")
	ErrInvalidMode     = errors.New("invalid charge mode")
	ErrNegativeAmount  = errors.New("negative amount")
	ErrNegativeEnergy  = errors.New("negative energy")
	ErrInvalidRating   = errors.New("rating must be between 1 and 5")
	ErrNegativeReading = errors.New("negative odometer reading")
	ErrInvalidTime     = errors.New("invalid timestamp")
	ErrInvalidCategory = errors.New("invalid expense category")
	ErrInvalidPayDay   = errors.New("pay day must be between 1 and 31")
)

func (m ChargeMode) Valid() bool {
	return m == Metered || m == Timed
}

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryParking, CategoryToll, CategoryMaintenance, CategoryDetailing, CategoryFine, CategoryOther:
		return true
	}
	return false
}

// CostPerKWH derives the redundant per-unit price stored on each record.
// A zero energy figure yields zero, never a division error.
func CostPerKWH(totalAmount, kwh float64) float64 {
	if kwh <= 0 {
		return 0
	}
	return totalAmount / kwh
}

// Normalize applies the write-time conventions: plates are uppercased and
// the per-kWh price is recomputed from the stored totals.
func (r *ChargingRecord) Normalize() {
	r.Location = strings.TrimSpace(r.Location)
	r.LicensePlate = strings.ToUpper(strings.TrimSpace(r.LicensePlate))
	r.Notes = strings.TrimSpace(r.Notes)
	r.CostPerKWH = CostPerKWH(r.TotalAmount, r.KWH)
}

func (r ChargingRecord) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrMissingOwner
	}
	if strings.TrimSpace(r.Location) == "" {
		return ErrMissingLocation
	}
	if r.Timestamp <= 0 {
		return ErrInvalidTime
	}
	if !r.Mode.Valid() {
		return ErrInvalidMode
	}
	if r.KWH < 0 {
		return ErrNegativeEnergy
	}
	if r.TotalAmount < 0 {
		return ErrNegativeAmount
	}
	if r.Odometer < 0 {
		return ErrNegativeReading
	}
	if r.Rating != 0 && (r.Rating < 1 || r.Rating > 5) {
		return ErrInvalidRating
	}
	return nil
}

func (e VariableExpense) Validate() error {
	if strings.TrimSpace(e.OwnerID) == "" {
		return ErrMissingOwner
	}
	if e.Timestamp <= 0 {
		return ErrInvalidTime
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	return nil
}

func (f FixedExpenses) Validate() error {
	if strings.TrimSpace(f.OwnerID) == "" {
		return ErrMissingOwner
	}
	for _, day := range []int{f.MonthlyLoanPayDay, f.MonthlyParkingPayDay} {
		if day != 0 && (day < 1 || day > 31) {
			return ErrInvalidPayDay
		}
	}
	for _, amount := range []float64{f.MonthlyLoan, f.MonthlyParking, f.InsuranceAnnualCost, f.LicenseAnnualCost} {
		if amount < 0 {
			return ErrNegativeAmount
		}
	}
	return nil
}

// Time converts the record's epoch-millisecond timestamp into the given
// location. Callers pick the calendar; the engine never assumes one.
func (r ChargingRecord) Time(loc *time.Location) time.Time {
	return time.UnixMilli(r.Timestamp).In(loc)
}

// MonthKey derives the "YYYY-MM" bucket key for an epoch-millisecond
// timestamp in the given local calendar.
func MonthKey(millis int64, loc *time.Location) string {
	t := time.UnixMilli(millis).In(loc)
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// MonthKeyOf formats a year+month pair as a bucket key.
func MonthKeyOf(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
