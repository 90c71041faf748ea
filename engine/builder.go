/*
builder.go - The ledger fold

PURPOSE:
  Compute() folds a loan's payment timeline into ledger rows. For each payment,
  in order:

    a. Accrue loan interest on the principal balance since the last event.
    b. Accrue penalty interest on outstanding late fees over the same span.
    c. Assess a late fee if the payment landed past due date + grace.
    d. Run the allocation waterfall (allocate.go).
    e. Emit one immutable LedgerRow.
    f. Advance the accrual anchor to the payment date.

  Steps a-c only ADD to buckets; only step d removes. The per-event order is
  fixed: penalty interest accrues on the fee balance as it stood BEFORE any
  fee assessed at this same event, so a fee never earns penalty interest on
  the day it is born.

VALIDATION:
  All terms and payment records are validated up front; the first bad record
  aborts the whole computation with a ValidationError. A partial ledger is
  worse than no ledger.
*/
package engine

import (
	"sort"
)

// Compute builds the full ledger for a loan. Payments may arrive in any
// order; they are copied and stably sorted by date before the fold, so
// same-date payments keep their input order. Returns one row per payment and
// the final running state.
func Compute(terms LoanTerms, payments []Payment, schedule DueDateSchedule) ([]LedgerRow, RunningState, error) {
	if err := validateTerms(terms); err != nil {
		return nil, RunningState{}, err
	}
	if err := validatePayments(terms, payments); err != nil {
		return nil, RunningState{}, err
	}

	ordered := make([]Payment, len(payments))
	copy(ordered, payments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	state := NewRunningState(terms)
	rows := make([]LedgerRow, 0, len(ordered))

	for _, p := range ordered {
		row, next, err := applyPayment(terms, state, p, schedule)
		if err != nil {
			return nil, state, err
		}
		rows = append(rows, row)
		state = next
	}
	return rows, state, nil
}

// applyPayment processes a single event against the current state.
func applyPayment(terms LoanTerms, state RunningState, p Payment, schedule DueDateSchedule) (LedgerRow, RunningState, error) {
	accruedLoan := Accrue(state.PrincipalBalance, terms.AnnualRate, state.LastEventDate, p.Date)
	state.UnpaidLoanInterest = state.UnpaidLoanInterest.Add(accruedLoan)

	accruedPenalty := Accrue(state.LateFeesOutstanding, terms.EffectivePenaltyRate(), state.LastEventDate, p.Date)
	state.PenaltyInterestOutstanding = state.PenaltyInterestOutstanding.Add(accruedPenalty)

	dueDate := schedule.DueDateFor(p.Date)
	reference := MonthlyInterestOn(state.PrincipalBalance, terms.AnnualRate)
	fee := AssessLateFee(terms, dueDate, p.Date, reference)
	state.LateFeesOutstanding = state.LateFeesOutstanding.Add(fee)

	alloc, after, err := Allocate(p.Amount, state)
	if err != nil {
		if ae, ok := err.(*ArithmeticError); ok {
			ae.Date = p.Date
		}
		return LedgerRow{}, state, err
	}

	after.LastEventDate = p.Date

	row := LedgerRow{
		DueDate:       dueDate,
		PaymentDate:   p.Date,
		PaymentAmount: Cents(p.Amount),

		AccruedLoanInterest:    accruedLoan,
		AccruedPenaltyInterest: accruedPenalty,
		LateFeeAssessed:        fee,

		AllocatedToPenaltyInterest: alloc.ToPenaltyInterest,
		AllocatedToLateFees:        alloc.ToLateFees,
		AllocatedToLoanInterest:    alloc.ToLoanInterest,
		AllocatedToPrincipal:       alloc.ToPrincipal,
		Overpayment:                alloc.Overpayment,

		EndingPrincipal:                  after.PrincipalBalance,
		EndingLateFeesOutstanding:        after.LateFeesOutstanding,
		EndingPenaltyInterestOutstanding: after.PenaltyInterestOutstanding,
	}
	return row, after, nil
}

// ProjectState rolls a post-computation state forward to a later date with
// accrual only: no payment, no fee assessment, no allocation. Used for
// "balance as of today" views between payments.
func ProjectState(terms LoanTerms, state RunningState, asOf Date) RunningState {
	if !asOf.After(state.LastEventDate) {
		return state
	}
	accruedLoan := Accrue(state.PrincipalBalance, terms.AnnualRate, state.LastEventDate, asOf)
	accruedPenalty := Accrue(state.LateFeesOutstanding, terms.EffectivePenaltyRate(), state.LastEventDate, asOf)

	state.UnpaidLoanInterest = state.UnpaidLoanInterest.Add(accruedLoan)
	state.PenaltyInterestOutstanding = state.PenaltyInterestOutstanding.Add(accruedPenalty)
	state.LastEventDate = asOf
	return state
}

// =============================================================================
// INPUT VALIDATION
// =============================================================================

func validateTerms(terms LoanTerms) error {
	if terms.OriginationDate.IsZero() {
		return &ValidationError{Field: "origination_date", Index: -1, Msg: "must be set"}
	}
	if !terms.Principal.IsPositive() {
		return &ValidationError{Field: "principal", Index: -1, Msg: "must be positive"}
	}
	if terms.AnnualRate.IsNegative() {
		return &ValidationError{Field: "annual_rate", Index: -1, Msg: "must not be negative"}
	}
	if terms.LateFeeAmount.IsNegative() {
		return &ValidationError{Field: "late_fee_amount", Index: -1, Msg: "must not be negative"}
	}
	if terms.GraceDays < 0 {
		return &ValidationError{Field: "grace_days", Index: -1, Msg: "must not be negative"}
	}
	switch terms.LateFeeType {
	case LateFeeFixed, LateFeePercent:
	default:
		return &ValidationError{Field: "late_fee_type", Index: -1, Msg: "must be fixed or percent"}
	}
	if terms.PenaltyRate != nil && terms.PenaltyRate.IsNegative() {
		return &ValidationError{Field: "penalty_rate", Index: -1, Msg: "must not be negative"}
	}
	return nil
}

func validatePayments(terms LoanTerms, payments []Payment) error {
	for i, p := range payments {
		if p.Date.IsZero() {
			return &ValidationError{Field: "date", Index: i, Date: p.Date, Msg: "must be set"}
		}
		if p.Date.Before(terms.OriginationDate) {
			return &ValidationError{Field: "date", Index: i, Date: p.Date, Msg: "precedes origination date"}
		}
		if !p.Amount.IsPositive() {
			return &ValidationError{Field: "amount", Index: i, Date: p.Date, Msg: "must be positive"}
		}
	}
	return nil
}
