// Package storage implements the ledger ports on SQLite. Dates are stored
// as ISO strings (YYYY-MM-DD) so calendar-month filtering is plain string
// comparison against the month bounds.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"koinochrista/internal/core"
	"koinochrista/internal/ledger"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

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

func (r *SQLiteRepository) GetBuilding(ctx context.Context, id int64) (core.Building, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, mills_total, reserve_monthly_cents, reserve_goal_cents,
		       reserve_deadline, management_fee_cents, management_fee_mode
		FROM buildings WHERE id = ?`, id)

	var (
		b        core.Building
		deadline string
		feeMode  string
	)
	err := row.Scan(&b.ID, &b.Name, &b.MillsTotal, &b.ReserveMonthly.Cents,
		&b.ReserveGoal.Cents, &deadline, &b.ManagementFee.Cents, &feeMode)
	if err == sql.ErrNoRows {
		return core.Building{}, fmt.Errorf("%w: %d", core.ErrBuildingNotFound, id)
	}
	if err != nil {
		return core.Building{}, fmt.Errorf("get building: %w", err)
	}
	if deadline != "" {
		m, err := core.ParseMonth(deadline)
		if err != nil {
			return core.Building{}, fmt.Errorf("building %d reserve deadline: %w", id, err)
		}
		b.ReserveDeadline = m
	}
	b.ManagementFeeMode = core.FeeMode(feeMode)
	return b, nil
}

func (r *SQLiteRepository) ListApartments(ctx context.Context, buildingID int64) ([]core.Apartment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_id, number, owner_name, tenant_name, mills, floor_area
		FROM apartments WHERE building_id = ? ORDER BY id`, buildingID)
	if err != nil {
		return nil, fmt.Errorf("list apartments: %w", err)
	}
	defer rows.Close()

	var out []core.Apartment
	for rows.Next() {
		var a core.Apartment
		if err := rows.Scan(&a.ID, &a.BuildingID, &a.Number, &a.OwnerName,
			&a.TenantName, &a.Mills, &a.FloorArea); err != nil {
			return nil, fmt.Errorf("scan apartment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListCategories(ctx context.Context) (map[int64]core.ExpenseCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, group_type, category_type, payer_pool, method
		FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]core.ExpenseCategory)
	for rows.Next() {
		var c core.ExpenseCategory
		var group, pool, method string
		if err := rows.Scan(&c.ID, &c.Name, &group, &c.CategoryType, &pool, &method); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.GroupType = core.GroupType(group)
		c.Pool = core.PayerPool(pool)
		c.Method = core.DistributionMethod(method)
		out[c.ID] = c
	}
	return out, rows.Err()
}

func monthRange(m core.Month) (string, string) {
	start, end := m.Bounds()
	return start.Format(dateLayout), end.Format(dateLayout)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, buildingID int64, m core.Month) ([]core.Expense, error) {
	start, end := monthRange(m)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_id, category_id, amount_cents, date, description, fixed_shares
		FROM expenses
		WHERE building_id = ? AND date >= ? AND date < ?
		ORDER BY date, id`, buildingID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			rawDate string
			shares  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.BuildingID, &e.CategoryID, &e.Amount.Cents,
			&rawDate, &e.Description, &shares); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		date, err := parseStoredDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		e.Date = date
		if shares.Valid && shares.String != "" {
			fixed, err := decodeFixedShares(shares.String)
			if err != nil {
				return nil, fmt.Errorf("expense %d fixed shares: %w", e.ID, err)
			}
			e.FixedShares = fixed
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, buildingID int64, m core.Month) ([]core.Income, error) {
	start, end := monthRange(m)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_id, category_id, amount_cents, date, description
		FROM incomes
		WHERE building_id = ? AND date >= ? AND date < ?
		ORDER BY date, id`, buildingID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.Income
	for rows.Next() {
		var (
			i       core.Income
			rawDate string
		)
		if err := rows.Scan(&i.ID, &i.BuildingID, &i.CategoryID, &i.Amount.Cents,
			&rawDate, &i.Description); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		date, err := parseStoredDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("income %d: %w", i.ID, err)
		}
		i.Date = date
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListPayments(ctx context.Context, buildingID int64, m core.Month) ([]core.Payment, error) {
	start, end := monthRange(m)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_id, apartment_id, amount_cents, date, description
		FROM payments
		WHERE building_id = ? AND date >= ? AND date < ?
		ORDER BY date, id`, buildingID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.Payment
	for rows.Next() {
		var (
			p       core.Payment
			rawDate string
		)
		if err := rows.Scan(&p.ID, &p.BuildingID, &p.ApartmentID, &p.Amount.Cents,
			&rawDate, &p.Description); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		date, err := parseStoredDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", p.ID, err)
		}
		p.Date = date
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) ListReadings(ctx context.Context, buildingID int64, m core.Month) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT apartment_id, units
		FROM consumption_readings
		WHERE building_id = ? AND year = ? AND month = ?`, buildingID, m.Year, m.Month)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]int64)
	for rows.Next() {
		var apartmentID, units int64
		if err := rows.Scan(&apartmentID, &units); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out[apartmentID] = units
	}
	return out, rows.Err()
}

// UpsertReading records or replaces a consumption reading for one apartment
// and month.
func (r *SQLiteRepository) UpsertReading(ctx context.Context, reading core.ConsumptionReading) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consumption_readings (building_id, apartment_id, year, month, units)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (building_id, apartment_id, year, month) DO UPDATE SET units = excluded.units`,
		reading.BuildingID, reading.ApartmentID, reading.Month.Year, reading.Month.Month, reading.Units)
	if err != nil {
		return fmt.Errorf("upsert reading: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListReserveTransactions(ctx context.Context, buildingID int64, through core.Month) ([]core.ReserveTransaction, error) {
	_, end := through.Bounds()
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_id, amount_cents, date, memo
		FROM reserve_transactions
		WHERE building_id = ? AND date < ?
		ORDER BY date, id`, buildingID, end.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("list reserve transactions: %w", err)
	}
	defer rows.Close()

	var out []core.ReserveTransaction
	for rows.Next() {
		var (
			tx      core.ReserveTransaction
			rawDate string
		)
		if err := rows.Scan(&tx.ID, &tx.BuildingID, &tx.Amount.Cents, &rawDate, &tx.Memo); err != nil {
			return nil, fmt.Errorf("scan reserve transaction: %w", err)
		}
		date, err := parseStoredDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("reserve transaction %d: %w", tx.ID, err)
		}
		tx.Date = date
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) FirstActivityMonth(ctx context.Context, buildingID int64) (core.Month, bool, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT MIN(date) FROM (
			SELECT MIN(date) AS date FROM expenses WHERE building_id = ?
			UNION ALL
			SELECT MIN(date) FROM incomes WHERE building_id = ?
			UNION ALL
			SELECT MIN(date) FROM payments WHERE building_id = ?
			UNION ALL
			SELECT MIN(date) FROM reserve_transactions WHERE building_id = ?
		)`, buildingID, buildingID, buildingID, buildingID)

	var raw sql.NullString
	if err := row.Scan(&raw); err != nil {
		return core.Month{}, false, fmt.Errorf("first activity month: %w", err)
	}
	if !raw.Valid || raw.String == "" {
		return core.Month{}, false, nil
	}
	date, err := parseStoredDate(raw.String)
	if err != nil {
		return core.Month{}, false, err
	}
	return core.MonthOf(date.Time), true, nil
}

func (r *SQLiteRepository) AppendExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	var shares any
	if len(e.FixedShares) > 0 {
		encoded, err := encodeFixedShares(e.FixedShares)
		if err != nil {
			return 0, fmt.Errorf("encode fixed shares: %w", err)
		}
		shares = encoded
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (building_id, category_id, amount_cents, date, description, fixed_shares)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.BuildingID, e.CategoryID, e.Amount.Cents, e.Date.Format(dateLayout), e.Description, shares)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) AppendIncome(ctx context.Context, i core.Income) (int64, error) {
	if err := i.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO incomes (building_id, category_id, amount_cents, date, description)
		VALUES (?, ?, ?, ?, ?)`,
		i.BuildingID, i.CategoryID, i.Amount.Cents, i.Date.Format(dateLayout), i.Description)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) AppendPayment(ctx context.Context, p core.Payment) (int64, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (building_id, apartment_id, amount_cents, date, description)
		VALUES (?, ?, ?, ?, ?)`,
		p.BuildingID, p.ApartmentID, p.Amount.Cents, p.Date.Format(dateLayout), p.Description)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) AppendReserveTransaction(ctx context.Context, tx core.ReserveTransaction) (int64, error) {
	if err := tx.Date.Validate(); err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reserve_transactions (building_id, amount_cents, date, memo)
		VALUES (?, ?, ?, ?)`,
		tx.BuildingID, tx.Amount.Cents, tx.Date.Format(dateLayout), tx.Memo)
	if err != nil {
		return 0, fmt.Errorf("insert reserve transaction: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) ListActiveRecurringCharges(ctx context.Context, now time.Time) ([]core.RecurringCharge, error) {
	today := now.Format(dateLayout)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, building_id, category_id, amount_cents, every, start_date, end_date, description, last_execution
		FROM recurring_charges
		WHERE active = 1 AND start_date <= ? AND (end_date IS NULL OR end_date = '' OR end_date >= ?)
		ORDER BY id`, today, today)
	if err != nil {
		return nil, fmt.Errorf("list recurring charges: %w", err)
	}
	defer rows.Close()

	var out []core.RecurringCharge
	for rows.Next() {
		var (
			rc       core.RecurringCharge
			every    string
			rawStart string
			rawEnd   sql.NullString
			rawExec  sql.NullTime
		)
		if err := rows.Scan(&rc.ID, &rc.BuildingID, &rc.CategoryID, &rc.Amount.Cents,
			&every, &rawStart, &rawEnd, &rc.Description, &rawExec); err != nil {
			return nil, fmt.Errorf("scan recurring charge: %w", err)
		}
		rc.Every = core.RepetitionType(every)
		start, err := parseStoredDate(rawStart)
		if err != nil {
			return nil, fmt.Errorf("recurring charge %d: %w", rc.ID, err)
		}
		rc.StartDate = start
		if rawEnd.Valid && rawEnd.String != "" {
			end, err := parseStoredDate(rawEnd.String)
			if err != nil {
				return nil, fmt.Errorf("recurring charge %d: %w", rc.ID, err)
			}
			rc.EndDate = end
		}
		if rawExec.Valid {
			rc.LastExecution = rawExec.Time
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkRecurringExecuted(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_charges SET last_execution = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("mark recurring executed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark recurring executed: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("recurring charge %d not found", id)
	}
	return nil
}

func parseStoredDate(raw string) (core.Date, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("malformed stored date %q: %w", raw, err)
	}
	return core.Date{Time: t}, nil
}

// Fixed shares are stored as a JSON object of apartment ID to cents.
func encodeFixedShares(shares map[int64]core.Money) (string, error) {
	flat := make(map[string]int64, len(shares))
	for id, amount := range shares {
		flat[strconv.FormatInt(id, 10)] = amount.Cents
	}
	encoded, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func decodeFixedShares(raw string) (map[int64]core.Money, error) {
	flat := make(map[string]int64)
	if err := json.Unmarshal([]byte(raw), &flat); err != nil {
		return nil, err
	}
	out := make(map[int64]core.Money, len(flat))
	for rawID, cents := range flat {
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("apartment id %q: %w", rawID, err)
		}
		out[id] = core.Money{Cents: cents}
	}
	return out, nil
}
