package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"evlog/internal/core"
	"evlog/internal/store"
)

const recordColumns = `id, owner_id, owner_email, timestamp, location, license_plate,
	mode, duration_min, kwh, total_amount, cost_per_kwh, odometer, rating, notes, is_featured`

// SQLiteRepository implements store.Store on an embedded SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.ChargingRecord) (core.ChargingRecord, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.ChargingRecord{}, err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO charging_records (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.OwnerEmail, rec.Timestamp, rec.Location, rec.LicensePlate,
		string(rec.Mode), rec.DurationMin, rec.KWH, rec.TotalAmount, rec.CostPerKWH,
		rec.Odometer, rec.Rating, rec.Notes, rec.IsFeatured)
	if err != nil {
		return core.ChargingRecord{}, fmt.Errorf("insert charging record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.ChargingRecord) (core.ChargingRecord, error) {
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return core.ChargingRecord{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE charging_records
		SET timestamp = ?, location = ?, license_plate = ?, mode = ?, duration_min = ?,
			kwh = ?, total_amount = ?, cost_per_kwh = ?, odometer = ?, rating = ?, notes = ?,
			synced_at = 0
		WHERE id = ? AND owner_id = ?`,
		rec.Timestamp, rec.Location, rec.LicensePlate, string(rec.Mode), rec.DurationMin,
		rec.KWH, rec.TotalAmount, rec.CostPerKWH, rec.Odometer, rec.Rating, rec.Notes,
		rec.ID, rec.OwnerID)
	if err != nil {
		return core.ChargingRecord{}, fmt.Errorf("update charging record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ChargingRecord{}, store.ErrNotFound
	}
	return r.GetRecord(ctx, rec.OwnerID, rec.ID)
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM charging_records WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete charging record: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, ownerID, id string) (core.ChargingRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM charging_records
		WHERE id = ? AND owner_id = ?`, id, ownerID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ChargingRecord{}, store.ErrNotFound
	}
	if err != nil {
		return core.ChargingRecord{}, fmt.Errorf("get charging record: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ListRecords(ctx context.Context, ownerID string) ([]core.ChargingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM charging_records
		WHERE owner_id = ? ORDER BY timestamp`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list charging records: %w", err)
	}
	return collectRecords(rows)
}

func (r *SQLiteRepository) ListAllRecords(ctx context.Context) ([]core.ChargingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM charging_records ORDER BY timestamp`)
	if err != nil {
		return nil, fmt.Errorf("list all charging records: %w", err)
	}
	return collectRecords(rows)
}

func (r *SQLiteRepository) ListFeatured(ctx context.Context) ([]core.ChargingRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM charging_records
		WHERE is_featured = 1 ORDER BY timestamp DESC`)
	if err != nil {
		return nil, fmt.Errorf("list featured records: %w", err)
	}
	return collectRecords(rows)
}

func (r *SQLiteRepository) ListUnsynced(ctx context.Context, limit int) ([]core.ChargingRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recordColumns+` FROM charging_records
		WHERE synced_at = 0 ORDER BY timestamp LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced records: %w", err)
	}
	return collectRecords(rows)
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string, syncedAt int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE charging_records SET synced_at = ? WHERE id = ?`, syncedAt, id)
	if err != nil {
		return fmt.Errorf("mark record synced: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SetFeatured(ctx context.Context, id string, featured bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE charging_records SET is_featured = ? WHERE id = ?`, featured, id)
	if err != nil {
		return fmt.Errorf("set featured: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.VariableExpense) (core.VariableExpense, error) {
	if err := e.Validate(); err != nil {
		return core.VariableExpense{}, err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO variable_expenses (id, owner_id, owner_email, timestamp, category, amount, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.OwnerEmail, e.Timestamp, string(e.Category), e.Amount, e.Notes)
	if err != nil {
		return core.VariableExpense{}, fmt.Errorf("insert variable expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM variable_expenses WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete variable expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, ownerID string) ([]core.VariableExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, owner_email, timestamp, category, amount, notes
		FROM variable_expenses WHERE owner_id = ? ORDER BY timestamp`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list variable expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.VariableExpense, 0)
	for rows.Next() {
		var e core.VariableExpense
		var category string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.OwnerEmail, &e.Timestamp, &category, &e.Amount, &e.Notes); err != nil {
			return nil, fmt.Errorf("scan variable expense: %w", err)
		}
		e.Category = core.ExpenseCategory(category)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) GetFixedExpenses(ctx context.Context, ownerID string) (core.FixedExpenses, bool, error) {
	var fx core.FixedExpenses
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, owner_email, monthly_loan, monthly_loan_pay_day,
			monthly_parking, monthly_parking_pay_day, insurance_expiry,
			insurance_annual_cost, license_expiry, license_annual_cost, last_updated
		FROM fixed_expenses WHERE owner_id = ?`, ownerID).Scan(
		&fx.OwnerID, &fx.OwnerEmail, &fx.MonthlyLoan, &fx.MonthlyLoanPayDay,
		&fx.MonthlyParking, &fx.MonthlyParkingPayDay, &fx.InsuranceExpiry,
		&fx.InsuranceAnnualCost, &fx.LicenseExpiry, &fx.LicenseAnnualCost, &fx.LastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedExpenses{}, false, nil
	}
	if err != nil {
		return core.FixedExpenses{}, false, fmt.Errorf("get fixed expenses: %w", err)
	}
	return fx, true, nil
}

func (r *SQLiteRepository) PutFixedExpenses(ctx context.Context, fx core.FixedExpenses) error {
	if err := fx.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (owner_id, owner_email, monthly_loan, monthly_loan_pay_day,
			monthly_parking, monthly_parking_pay_day, insurance_expiry,
			insurance_annual_cost, license_expiry, license_annual_cost, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id) DO UPDATE SET
			owner_email = excluded.owner_email,
			monthly_loan = excluded.monthly_loan,
			monthly_loan_pay_day = excluded.monthly_loan_pay_day,
			monthly_parking = excluded.monthly_parking,
			monthly_parking_pay_day = excluded.monthly_parking_pay_day,
			insurance_expiry = excluded.insurance_expiry,
			insurance_annual_cost = excluded.insurance_annual_cost,
			license_expiry = excluded.license_expiry,
			license_annual_cost = excluded.license_annual_cost,
			last_updated = excluded.last_updated`,
		fx.OwnerID, fx.OwnerEmail, fx.MonthlyLoan, fx.MonthlyLoanPayDay,
		fx.MonthlyParking, fx.MonthlyParkingPayDay, fx.InsuranceExpiry,
		fx.InsuranceAnnualCost, fx.LicenseExpiry, fx.LicenseAnnualCost, fx.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert fixed expenses: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (core.ChargingRecord, error) {
	var rec core.ChargingRecord
	var mode string
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.OwnerEmail, &rec.Timestamp, &rec.Location,
		&rec.LicensePlate, &mode, &rec.DurationMin, &rec.KWH, &rec.TotalAmount,
		&rec.CostPerKWH, &rec.Odometer, &rec.Rating, &rec.Notes, &rec.IsFeatured)
	if err != nil {
		return core.ChargingRecord{}, err
	}
	rec.Mode = core.ChargeMode(mode)
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]core.ChargingRecord, error) {
	defer rows.Close()
	out := make([]core.ChargingRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan charging record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
