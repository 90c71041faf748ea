/*
Package loan is the domain layer around the ledger engine.

PURPOSE:
  The engine package is a pure calculator: terms and payments in, rows out.
  This package owns the things a servicing system needs around that math:

  - Loan: The persisted aggregate (identity, borrower, the terms themselves)
  - Share tokens: Unguessable read-only links a lender hands a borrower
  - ParseTerms: JSON terms definitions, so terms can live in config or a DB
  - ImportPaymentsCSV: Tolerant ingestion of real-world payment exports

SEE ALSO:
  - engine/: The computation this package feeds
  - store/sqlite/: Persistence for Loan and its payments
*/
package loan

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shylock/servicing-engine/engine"
)

// =============================================================================
// DEFAULTS
// =============================================================================

var (
	// DefaultAnnualRate and friends apply when a loan is created without
	// explicit terms. They describe a plain private loan: 5% APR over 30
	// years, $25 late fee after a 10 day grace window.
	DefaultAnnualRate    = decimal.NewFromInt(5)
	DefaultTermYears     = 30
	DefaultLateFeeAmount = decimal.NewFromInt(25)
	DefaultGraceDays     = 10
)

// =============================================================================
// LOAN AGGREGATE
// =============================================================================

// Loan is one serviced loan: who borrowed, the terms, and the share token
// that grants read-only borrower access. Payments are stored separately and
// joined by LoanID.
type Loan struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	LenderName    string    `json:"lender_name,omitempty"`
	BorrowerName  string    `json:"borrower_name"`
	BorrowerEmail string    `json:"borrower_email,omitempty"`

	// ShareToken is the capability for the read-only borrower view. Anyone
	// holding it can see the ledger but change nothing. Rotate to revoke.
	ShareToken string `json:"-"`

	Principal       decimal.Decimal    `json:"principal"`
	AnnualRate      decimal.Decimal    `json:"annual_rate"`
	OriginationDate engine.Date        `json:"origination_date"`
	TermYears       int                `json:"term_years"`
	LateFeeType     engine.LateFeeType `json:"late_fee_type"`
	LateFeeAmount   decimal.Decimal    `json:"late_fee_amount"`
	GraceDays       int                `json:"grace_days"`
	PenaltyRate     *decimal.Decimal   `json:"penalty_rate,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates a loan with defaulted terms and a fresh share token.
func New(borrowerName string, principal decimal.Decimal, origination engine.Date) (*Loan, error) {
	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Loan{
		ID:              uuid.New(),
		Name:            borrowerName + "'s Loan",
		BorrowerName:    borrowerName,
		ShareToken:      token,
		Principal:       principal,
		AnnualRate:      DefaultAnnualRate,
		OriginationDate: origination,
		TermYears:       DefaultTermYears,
		LateFeeType:     engine.LateFeeFixed,
		LateFeeAmount:   DefaultLateFeeAmount,
		GraceDays:       DefaultGraceDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Terms projects the aggregate into the engine's input type.
func (l *Loan) Terms() engine.LoanTerms {
	return engine.LoanTerms{
		Principal:       l.Principal,
		AnnualRate:      l.AnnualRate,
		OriginationDate: l.OriginationDate,
		TermYears:       l.TermYears,
		LateFeeType:     l.LateFeeType,
		LateFeeAmount:   l.LateFeeAmount,
		GraceDays:       l.GraceDays,
		PenaltyRate:     l.PenaltyRate,
	}
}

// Schedule returns the due-date cadence for this loan: monthly anniversaries
// of the origination date, clamped to month end.
func (l *Loan) Schedule() engine.DueDateSchedule {
	return engine.MonthlyAnniversarySchedule{Origination: l.OriginationDate}
}

// RotateShareToken replaces the share token, invalidating every link issued
// with the old one.
func (l *Loan) RotateShareToken() error {
	token, err := newShareToken()
	if err != nil {
		return err
	}
	l.ShareToken = token
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// newShareToken returns 32 bytes of randomness, URL-safe encoded (43 chars).
func newShareToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
