package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// LATE-FEE ASSESSOR
// =============================================================================

// AssessLateFee decides whether a payment is late enough to trigger a fee and
// returns its magnitude. Zero when the payment lands on or before
// dueDate + grace.
//
// For percent-type fees, referenceAmount stands in for the expected scheduled
// payment (the builder passes one month of interest on the current balance).
// Keeping the reference an explicit parameter lets a real amortized amount
// replace the heuristic later without touching the allocator or builder.
//
// Pure function; accumulation into LateFeesOutstanding is the builder's job.
func AssessLateFee(terms LoanTerms, dueDate, paymentDate Date, referenceAmount decimal.Decimal) decimal.Decimal {
	if terms.GraceDays < 0 {
		return decimal.Zero
	}
	deadline := dueDate.AddDays(terms.GraceDays)
	if !paymentDate.After(deadline) {
		return decimal.Zero
	}

	switch terms.LateFeeType {
	case LateFeePercent:
		return Cents(referenceAmount.Mul(terms.LateFeeAmount).Div(oneHundred))
	default: // LateFeeFixed
		return Cents(terms.LateFeeAmount)
	}
}

// DaysLate returns how many days past due a payment landed; zero when on time.
func DaysLate(dueDate, paymentDate Date) int {
	d := DaysBetween(dueDate, paymentDate)
	if d < 0 {
		return 0
	}
	return d
}
