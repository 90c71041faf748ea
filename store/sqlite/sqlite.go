/*
Package sqlite provides SQLite-backed persistence for loans and payments.

PURPOSE:
  Stores the two things the engine cannot reconstruct: loan terms and raw
  payment events. Ledger rows are never persisted; they are recomputed from
  these inputs on demand, so the database can never disagree with the math.

KEY TABLES:
  loans:    One row per serviced loan (terms, borrower, share token)
  payments: Raw payment events, joined by loan_id

DECIMAL STORAGE:
  Monetary columns are TEXT holding exact decimal strings. REAL would
  reintroduce the float drift the whole system exists to avoid.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/loans.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/shylock/servicing-engine/engine"
	"github.com/shylock/servicing-engine/loan"
)

// ErrNotFound is returned when no loan matches the given id or token.
var ErrNotFound = errors.New("loan not found")

// Store persists loans and their payment events.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		lender_name TEXT NOT NULL DEFAULT '',
		borrower_name TEXT NOT NULL,
		borrower_email TEXT NOT NULL DEFAULT '',
		share_token TEXT NOT NULL UNIQUE,
		principal TEXT NOT NULL,
		annual_rate TEXT NOT NULL,
		origination_date TEXT NOT NULL,
		term_years INTEGER NOT NULL,
		late_fee_type TEXT NOT NULL,
		late_fee_amount TEXT NOT NULL,
		grace_days INTEGER NOT NULL,
		penalty_rate TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_loans_share_token
		ON loans(share_token);

	-- Raw payment events; the ledger is recomputed from these.
	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		loan_id TEXT NOT NULL REFERENCES loans(id) ON DELETE CASCADE,
		paid_on TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_loan_date
		ON payments(loan_id, paid_on);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LOANS
// =============================================================================

// SaveLoan inserts or updates a loan.
func (s *Store) SaveLoan(ctx context.Context, l *loan.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var penalty sql.NullString
	if l.PenaltyRate != nil {
		penalty = sql.NullString{String: l.PenaltyRate.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (
			id, name, lender_name, borrower_name, borrower_email, share_token,
			principal, annual_rate, origination_date, term_years,
			late_fee_type, late_fee_amount, grace_days, penalty_rate,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			lender_name = excluded.lender_name,
			borrower_name = excluded.borrower_name,
			borrower_email = excluded.borrower_email,
			share_token = excluded.share_token,
			principal = excluded.principal,
			annual_rate = excluded.annual_rate,
			origination_date = excluded.origination_date,
			term_years = excluded.term_years,
			late_fee_type = excluded.late_fee_type,
			late_fee_amount = excluded.late_fee_amount,
			grace_days = excluded.grace_days,
			penalty_rate = excluded.penalty_rate,
			updated_at = excluded.updated_at`,
		l.ID.String(), l.Name, l.LenderName, l.BorrowerName, l.BorrowerEmail, l.ShareToken,
		l.Principal.String(), l.AnnualRate.String(), l.OriginationDate.String(), l.TermYears,
		string(l.LateFeeType), l.LateFeeAmount.String(), l.GraceDays, penalty,
		l.CreatedAt.UTC().Format(time.RFC3339), l.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save loan: %w", err)
	}
	return nil
}

const loanColumns = `id, name, lender_name, borrower_name, borrower_email, share_token,
	principal, annual_rate, origination_date, term_years,
	late_fee_type, late_fee_amount, grace_days, penalty_rate,
	created_at, updated_at`

// GetLoan fetches one loan by id.
func (s *Store) GetLoan(ctx context.Context, id uuid.UUID) (*loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE id = ?`, id.String())
	return scanLoan(row)
}

// GetLoanByToken fetches the loan behind a borrower share token.
func (s *Store) GetLoanByToken(ctx context.Context, token string) (*loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+loanColumns+` FROM loans WHERE share_token = ?`, token)
	return scanLoan(row)
}

// ListLoans returns all loans ordered by creation time.
func (s *Store) ListLoans(ctx context.Context) ([]*loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+loanColumns+` FROM loans ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []*loan.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// DeleteLoan removes a loan; its payments go with it (FK cascade).
func (s *Store) DeleteLoan(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete loan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLoan(row scanner) (*loan.Loan, error) {
	var (
		l                          loan.Loan
		idStr, origStr             string
		principal, rate, feeAmount string
		feeType                    string
		penalty                    sql.NullString
		createdStr, updatedStr     string
	)
	err := row.Scan(
		&idStr, &l.Name, &l.LenderName, &l.BorrowerName, &l.BorrowerEmail, &l.ShareToken,
		&principal, &rate, &origStr, &l.TermYears,
		&feeType, &feeAmount, &l.GraceDays, &penalty,
		&createdStr, &updatedStr,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan loan: %w", err)
	}

	if l.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("corrupt loan id %q: %w", idStr, err)
	}
	if l.Principal, err = decimal.NewFromString(principal); err != nil {
		return nil, fmt.Errorf("corrupt principal %q: %w", principal, err)
	}
	if l.AnnualRate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("corrupt annual_rate %q: %w", rate, err)
	}
	if l.LateFeeAmount, err = decimal.NewFromString(feeAmount); err != nil {
		return nil, fmt.Errorf("corrupt late_fee_amount %q: %w", feeAmount, err)
	}
	if l.OriginationDate, err = engine.ParseDate(origStr); err != nil {
		return nil, fmt.Errorf("corrupt origination_date %q: %w", origStr, err)
	}
	l.LateFeeType = engine.LateFeeType(feeType)
	if penalty.Valid {
		p, err := decimal.NewFromString(penalty.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt penalty_rate %q: %w", penalty.String, err)
		}
		l.PenaltyRate = &p
	}
	if l.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return nil, fmt.Errorf("corrupt created_at %q: %w", createdStr, err)
	}
	if l.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return nil, fmt.Errorf("corrupt updated_at %q: %w", updatedStr, err)
	}
	return &l, nil
}

// =============================================================================
// PAYMENTS
// =============================================================================

// AddPayment appends one payment event to a loan.
func (s *Store) AddPayment(ctx context.Context, loanID uuid.UUID, p engine.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loanExists(ctx, loanID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (loan_id, paid_on, amount) VALUES (?, ?, ?)`,
		loanID.String(), p.Date.String(), p.Amount.String())
	if err != nil {
		return fmt.Errorf("failed to add payment: %w", err)
	}
	return nil
}

// ReplacePayments atomically swaps a loan's full payment history, e.g. after
// a CSV re-import. Either every new payment lands or none do.
func (s *Store) ReplacePayments(ctx context.Context, loanID uuid.UUID, payments []engine.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loanExists(ctx, loanID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM payments WHERE loan_id = ?`, loanID.String()); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}
	for _, p := range payments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO payments (loan_id, paid_on, amount) VALUES (?, ?, ?)`,
			loanID.String(), p.Date.String(), p.Amount.String()); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}
	return tx.Commit()
}

// PaymentsForLoan returns a loan's payment events in date order.
func (s *Store) PaymentsForLoan(ctx context.Context, loanID uuid.UUID) ([]engine.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT paid_on, amount FROM payments WHERE loan_id = ? ORDER BY paid_on, id`,
		loanID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []engine.Payment
	for rows.Next() {
		var dateStr, amountStr string
		if err := rows.Scan(&dateStr, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		when, err := engine.ParseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt paid_on %q: %w", dateStr, err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("corrupt amount %q: %w", amountStr, err)
		}
		payments = append(payments, engine.Payment{Date: when, Amount: amount})
	}
	return payments, rows.Err()
}

func (s *Store) loanExists(ctx context.Context, id uuid.UUID) error {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM loans WHERE id = ?`, id.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	return err
}
