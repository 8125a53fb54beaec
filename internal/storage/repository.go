package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"finanzas/internal/core"
	"finanzas/internal/ledger"

	_ "modernc.org/sqlite"
)

const (
	installmentColumns = `id, purchase_date, description, category, amount_cents, payer,
		payment_method, installments_total, installments_paid, settled_months`

	fixedColumns = `id, description, category, amount_cents, payer, account,
		start_date, end_date, active, split_ratio, overrides, settled_months`
)

// SQLiteRepository is the persistent ledger.Store.
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

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstallment(row rowScanner) (core.InstallmentExpense, error) {
	var (
		e       core.InstallmentExpense
		date    string
		payer   string
		settled string
	)
	err := row.Scan(&e.ID, &date, &e.Description, &e.Category, &e.Amount.Cents, &payer,
		&e.PaymentMethod, &e.InstallmentsTotal, &e.InstallmentsPaid, &settled)
	if err != nil {
		return core.InstallmentExpense{}, err
	}
	e.Date = decodeDate(date, "purchase_date", e.ID)
	e.Payer = core.Payer(payer)
	e.SettledMonths = core.DecodeMonthSet(settled)
	return e, nil
}

func scanFixed(row rowScanner) (core.FixedExpense, error) {
	var (
		f                        core.FixedExpense
		payer, start, end        string
		active                   int
		split, overrides, settle string
	)
	err := row.Scan(&f.ID, &f.Description, &f.Category, &f.Amount.Cents, &payer, &f.Account,
		&start, &end, &active, &split, &overrides, &settle)
	if err != nil {
		return core.FixedExpense{}, err
	}
	f.Payer = core.Payer(payer)
	f.StartDate = decodeDate(start, "start_date", f.ID)
	f.EndDate = decodeDate(end, "end_date", f.ID)
	f.Active = active != 0
	f.Split = decodeSplit(split, f.ID)
	f.Overrides = decodeOverrides(overrides, f.ID)
	f.SettledMonths = core.DecodeMonthSet(settle)
	return f, nil
}

func (r *SQLiteRepository) ListInstallments(ctx context.Context) ([]core.InstallmentExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+installmentColumns+` FROM installments ORDER BY id`)
	if err != nil {
		return nil, &core.StorageError{Op: "list installments", Err: err}
	}
	defer rows.Close()

	var out []core.InstallmentExpense
	for rows.Next() {
		e, err := scanInstallment(rows)
		if err != nil {
			return nil, &core.StorageError{Op: "scan installment", Err: err}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list installments", Err: err}
	}
	return out, nil
}

func (r *SQLiteRepository) ListFixed(ctx context.Context) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+fixedColumns+` FROM fixed_expenses ORDER BY id`)
	if err != nil {
		return nil, &core.StorageError{Op: "list fixed expenses", Err: err}
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		f, err := scanFixed(rows)
		if err != nil {
			return nil, &core.StorageError{Op: "scan fixed expense", Err: err}
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list fixed expenses", Err: err}
	}
	return out, nil
}

func (r *SQLiteRepository) GetInstallment(ctx context.Context, id int64) (core.InstallmentExpense, error) {
	return getInstallment(ctx, r.db, id)
}

func (r *SQLiteRepository) GetFixed(ctx context.Context, id int64) (core.FixedExpense, error) {
	return getFixed(ctx, r.db, id)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getInstallment(ctx context.Context, q queryRower, id int64) (core.InstallmentExpense, error) {
	row := q.QueryRowContext(ctx, `SELECT `+installmentColumns+` FROM installments WHERE id = ?`, id)
	e, err := scanInstallment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.InstallmentExpense{}, &core.NotFoundError{Kind: ledger.KindInstallment, ID: id}
	}
	if err != nil {
		return core.InstallmentExpense{}, &core.StorageError{Op: "get installment", Err: err}
	}
	return e, nil
}

func getFixed(ctx context.Context, q queryRower, id int64) (core.FixedExpense, error) {
	row := q.QueryRowContext(ctx, `SELECT `+fixedColumns+` FROM fixed_expenses WHERE id = ?`, id)
	f, err := scanFixed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.FixedExpense{}, &core.NotFoundError{Kind: ledger.KindFixed, ID: id}
	}
	if err != nil {
		return core.FixedExpense{}, &core.StorageError{Op: "get fixed expense", Err: err}
	}
	return f, nil
}

func (r *SQLiteRepository) InsertInstallment(ctx context.Context, e core.InstallmentExpense) (core.InstallmentExpense, error) {
	e, err := ledger.PrepareInstallment(e)
	if err != nil {
		return core.InstallmentExpense{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO installments (purchase_date, description, category, amount_cents, payer,
			payment_method, installments_total, installments_paid, settled_months)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		encodeDate(e.Date), e.Description, e.Category, e.Amount.Cents, string(e.Payer),
		e.PaymentMethod, e.InstallmentsTotal, e.InstallmentsPaid, e.SettledMonths.Encode())
	if err != nil {
		return core.InstallmentExpense{}, &core.StorageError{Op: "insert installment", Err: err}
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.InstallmentExpense{}, &core.StorageError{Op: "insert installment", Err: err}
	}

	slog.InfoContext(ctx, "Installment saved to SQLite",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"installments_total", e.InstallmentsTotal)

	return e, nil
}

func (r *SQLiteRepository) InsertFixed(ctx context.Context, f core.FixedExpense) (core.FixedExpense, error) {
	f, err := ledger.PrepareFixed(f)
	if err != nil {
		return core.FixedExpense{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (description, category, amount_cents, payer, account,
			start_date, end_date, active, split_ratio, overrides, settled_months)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Description, f.Category, f.Amount.Cents, string(f.Payer), f.Account,
		encodeDate(f.StartDate), encodeDate(f.EndDate), boolToInt(f.Active),
		encodeSplit(f.Split), encodeOverrides(f.Overrides), f.SettledMonths.Encode())
	if err != nil {
		return core.FixedExpense{}, &core.StorageError{Op: "insert fixed expense", Err: err}
	}
	if f.ID, err = res.LastInsertId(); err != nil {
		return core.FixedExpense{}, &core.StorageError{Op: "insert fixed expense", Err: err}
	}

	slog.InfoContext(ctx, "Fixed expense saved to SQLite",
		"id", f.ID,
		"description", f.Description,
		"amount_cents", f.Amount.Cents,
		"payer", f.Payer)

	return f, nil
}

// UpdateInstallment reads, patches, validates and writes the record in one transaction.
func (r *SQLiteRepository) UpdateInstallment(ctx context.Context, id int64, p ledger.InstallmentPatch) (core.InstallmentExpense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.InstallmentExpense{}, &core.StorageError{Op: "begin update installment", Err: err}
	}
	defer tx.Rollback()

	cur, err := getInstallment(ctx, tx, id)
	if err != nil {
		return core.InstallmentExpense{}, err
	}
	next := p.Apply(cur)
	next.ID = id
	if err := next.Validate(); err != nil {
		return core.InstallmentExpense{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE installments SET purchase_date = ?, description = ?, category = ?, amount_cents = ?,
			payer = ?, payment_method = ?, installments_total = ?, installments_paid = ?,
			settled_months = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		encodeDate(next.Date), next.Description, next.Category, next.Amount.Cents,
		string(next.Payer), next.PaymentMethod, next.InstallmentsTotal, next.InstallmentsPaid,
		next.SettledMonths.Encode(), id)
	if err != nil {
		return core.InstallmentExpense{}, &core.StorageError{Op: "update installment", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return core.InstallmentExpense{}, &core.StorageError{Op: "commit update installment", Err: err}
	}
	return next, nil
}

// UpdateFixed reads, patches, validates and writes the record in one transaction.
func (r *SQLiteRepository) UpdateFixed(ctx context.Context, id int64, p ledger.FixedPatch) (core.FixedExpense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FixedExpense{}, &core.StorageError{Op: "begin update fixed expense", Err: err}
	}
	defer tx.Rollback()

	cur, err := getFixed(ctx, tx, id)
	if err != nil {
		return core.FixedExpense{}, err
	}
	next := p.Apply(cur)
	next.ID = id
	if err := next.Validate(); err != nil {
		return core.FixedExpense{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE fixed_expenses SET description = ?, category = ?, amount_cents = ?, payer = ?,
			account = ?, start_date = ?, end_date = ?, active = ?, split_ratio = ?,
			overrides = ?, settled_months = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		next.Description, next.Category, next.Amount.Cents, string(next.Payer), next.Account,
		encodeDate(next.StartDate), encodeDate(next.EndDate), boolToInt(next.Active),
		encodeSplit(next.Split), encodeOverrides(next.Overrides), next.SettledMonths.Encode(), id)
	if err != nil {
		return core.FixedExpense{}, &core.StorageError{Op: "update fixed expense", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return core.FixedExpense{}, &core.StorageError{Op: "commit update fixed expense", Err: err}
	}
	return next, nil
}

func (r *SQLiteRepository) DeleteInstallment(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM installments WHERE id = ?`, id)
	if err != nil {
		return &core.StorageError{Op: "delete installment", Err: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "Installment deleted", "id", id)
	}
	return nil
}

func (r *SQLiteRepository) DeleteFixed(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_expenses WHERE id = ?`, id)
	if err != nil {
		return &core.StorageError{Op: "delete fixed expense", Err: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.InfoContext(ctx, "Fixed expense deleted", "id", id)
	}
	return nil
}
