/*
Package engine implements the loan-servicing ledger computation.

PURPOSE:
  Given a loan's terms and an ordered set of irregular payments, compute for
  every payment how much loan interest and penalty interest has accrued, how
  the payment splits across penalty interest, late fees, loan interest, and
  principal, and the resulting running balances.

KEY CONCEPTS IN THIS FILE (types.go):
  - LoanTerms: Immutable inputs to one computation (principal, APR, fee rules)
  - Payment: One real-world payment event (date + positive amount)
  - RunningState: The accumulator threaded through the fold
  - LedgerRow: One immutable output row per processed payment

DESIGN PRINCIPLES:
  1. Determinism: Same terms + same payments = bit-identical output. Money
     disputes require reproducibility.
  2. Precision: decimal.Decimal everywhere; money held at cents, rounded
     half-away-from-zero.
  3. Purity: No I/O, no shared state; RunningState is local to one Compute.

ALLOCATION ORDER (never violated):
  Penalty Interest -> Late Fees -> Loan Interest -> Principal

SEE ALSO:
  - accrual.go: ACT/365 simple-interest accrual
  - latefee.go: Late-fee assessment
  - allocate.go: Payment waterfall
  - builder.go: The fold driving the timeline
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY HELPERS - cents precision, half-away-from-zero
// =============================================================================

var (
	daysInYear   = decimal.NewFromInt(365)
	monthsInYear = decimal.NewFromInt(12)
	oneHundred   = decimal.NewFromInt(100)
)

// Cents rounds a monetary value to 2 decimal places, half away from zero.
func Cents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// =============================================================================
// LOAN TERMS
// =============================================================================

type LateFeeType string

const (
	LateFeeFixed   LateFeeType = "fixed"   // flat dollar amount
	LateFeePercent LateFeeType = "percent" // percent of the reference amount
)

// LoanTerms are the immutable inputs to a ledger computation.
type LoanTerms struct {
	Principal       decimal.Decimal // original amount lent, > 0
	AnnualRate      decimal.Decimal // percent per year, >= 0
	OriginationDate Date            // day-count origin
	TermYears       int             // informational only; 0 = unset

	LateFeeType   LateFeeType
	LateFeeAmount decimal.Decimal // dollars if fixed, percent if percent; >= 0
	GraceDays     int             // days past due before a fee is assessed

	// PenaltyRate is the APR charged on outstanding late fees. Nil or zero
	// falls back to AnnualRate, matching the source system's behavior.
	PenaltyRate *decimal.Decimal
}

// EffectivePenaltyRate resolves the rate applied to outstanding late fees.
func (t LoanTerms) EffectivePenaltyRate() decimal.Decimal {
	if t.PenaltyRate == nil || t.PenaltyRate.IsZero() {
		return t.AnnualRate
	}
	return *t.PenaltyRate
}

// Payment is a single payment event. Amount must be strictly positive and
// Date must be on or after the loan's origination date.
type Payment struct {
	Date   Date
	Amount decimal.Decimal
}

// =============================================================================
// RUNNING STATE - the fold accumulator
// =============================================================================

// RunningState carries the balances between events. One instance per
// computation, never shared.
type RunningState struct {
	PrincipalBalance           decimal.Decimal
	UnpaidLoanInterest         decimal.Decimal // interest carry; does not itself accrue
	LateFeesOutstanding        decimal.Decimal // penalty-interest basis
	PenaltyInterestOutstanding decimal.Decimal
	LastEventDate              Date // accrual anchor; never regresses
}

// NewRunningState returns the initial state for a loan: full principal,
// empty buckets, accrual anchored at origination.
func NewRunningState(terms LoanTerms) RunningState {
	return RunningState{
		PrincipalBalance:           Cents(terms.Principal),
		UnpaidLoanInterest:         decimal.Zero,
		LateFeesOutstanding:        decimal.Zero,
		PenaltyInterestOutstanding: decimal.Zero,
		LastEventDate:              terms.OriginationDate,
	}
}

// TotalOutstanding is principal plus every unpaid bucket.
func (s RunningState) TotalOutstanding() decimal.Decimal {
	return s.PrincipalBalance.
		Add(s.UnpaidLoanInterest).
		Add(s.LateFeesOutstanding).
		Add(s.PenaltyInterestOutstanding)
}

// =============================================================================
// LEDGER ROW - one immutable output row per payment
// =============================================================================

// LedgerRow snapshots everything that happened at one payment event plus the
// resulting balances. Rows are emitted in event-date order and never mutated.
type LedgerRow struct {
	DueDate       Date
	PaymentDate   Date
	PaymentAmount decimal.Decimal

	AccruedLoanInterest    decimal.Decimal // accrued this span (excludes carry)
	AccruedPenaltyInterest decimal.Decimal
	LateFeeAssessed        decimal.Decimal

	AllocatedToPenaltyInterest decimal.Decimal
	AllocatedToLateFees        decimal.Decimal
	AllocatedToLoanInterest    decimal.Decimal
	AllocatedToPrincipal       decimal.Decimal

	// Overpayment is the part of the payment left after principal reached
	// zero. It is surfaced for caller policy (refund, credit, reject),
	// never silently absorbed.
	Overpayment decimal.Decimal

	EndingPrincipal                  decimal.Decimal
	EndingLateFeesOutstanding        decimal.Decimal
	EndingPenaltyInterestOutstanding decimal.Decimal
}

// HasOverpayment reports whether this row carries an unapplied remainder.
func (r LedgerRow) HasOverpayment() bool {
	return r.Overpayment.IsPositive()
}

// AllocatedTotal is the sum of the four allocation buckets plus any flagged
// overpayment; it equals PaymentAmount for every valid row.
func (r LedgerRow) AllocatedTotal() decimal.Decimal {
	return r.AllocatedToPenaltyInterest.
		Add(r.AllocatedToLateFees).
		Add(r.AllocatedToLoanInterest).
		Add(r.AllocatedToPrincipal).
		Add(r.Overpayment)
}
