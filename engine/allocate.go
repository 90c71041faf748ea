/*
allocate.go - Payment allocation waterfall

PURPOSE:
  Applies one payment to the outstanding buckets in strict priority order:

    1. Penalty Interest
    2. Late Fees
    3. Loan Interest (carry + newly accrued)
    4. Principal

  Each step consumes as much of the remaining payment as the bucket owes,
  never more. Once a bucket is satisfied, later buckets cannot borrow back
  from it within the same event.

ROUNDING:
  Every bucket is held at cents (accruals are rounded when they enter a
  bucket), so the min() waterfall is exact at cents and the four allocations
  reconstruct the payment amount without a reconciliation step. A conservation
  check still runs after every allocation: money code must fail loudly, never
  emit silently wrong balances.

OVERPAYMENT:
  Principal allocation is capped at the outstanding principal. Whatever is
  left after principal reaches zero is returned as an explicit overpayment for
  the caller to act on (refund, credit, reject) - never silently dropped.
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// Allocation is the split of a single payment across the waterfall buckets.
type Allocation struct {
	ToPenaltyInterest decimal.Decimal
	ToLateFees        decimal.Decimal
	ToLoanInterest    decimal.Decimal
	ToPrincipal       decimal.Decimal
	Overpayment       decimal.Decimal
}

// Total reconstructs the payment amount this allocation was computed from.
func (a Allocation) Total() decimal.Decimal {
	return a.ToPenaltyInterest.
		Add(a.ToLateFees).
		Add(a.ToLoanInterest).
		Add(a.ToPrincipal).
		Add(a.Overpayment)
}

// Allocate runs the waterfall for one payment against the current state.
// state.UnpaidLoanInterest must already include interest newly accrued for
// this event (the builder adds it before allocating). Returns the allocation
// and the post-payment state; the input state is not mutated.
func Allocate(paymentAmount decimal.Decimal, state RunningState) (Allocation, RunningState, error) {
	remaining := Cents(paymentAmount)
	var alloc Allocation

	alloc.ToPenaltyInterest = decimal.Min(remaining, state.PenaltyInterestOutstanding)
	remaining = remaining.Sub(alloc.ToPenaltyInterest)
	state.PenaltyInterestOutstanding = state.PenaltyInterestOutstanding.Sub(alloc.ToPenaltyInterest)

	alloc.ToLateFees = decimal.Min(remaining, state.LateFeesOutstanding)
	remaining = remaining.Sub(alloc.ToLateFees)
	state.LateFeesOutstanding = state.LateFeesOutstanding.Sub(alloc.ToLateFees)

	alloc.ToLoanInterest = decimal.Min(remaining, state.UnpaidLoanInterest)
	remaining = remaining.Sub(alloc.ToLoanInterest)
	state.UnpaidLoanInterest = state.UnpaidLoanInterest.Sub(alloc.ToLoanInterest)

	// Principal takes the rest, capped at what is actually owed. The residual
	// is an overpayment surfaced to the caller, not a negative balance.
	alloc.ToPrincipal = decimal.Min(remaining, state.PrincipalBalance)
	state.PrincipalBalance = state.PrincipalBalance.Sub(alloc.ToPrincipal)
	alloc.Overpayment = remaining.Sub(alloc.ToPrincipal)

	if !alloc.Total().Equal(Cents(paymentAmount)) {
		return Allocation{}, state, &ArithmeticError{
			PaymentAmount: Cents(paymentAmount),
			Allocated:     alloc.Total(),
		}
	}
	return alloc, state, nil
}
