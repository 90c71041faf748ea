package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// ACCRUAL CALCULATOR - ACT/365 simple interest
// =============================================================================

// Accrue computes simple interest on a balance over an elapsed day span:
//
//	balance * (annualRatePercent / 100) * days / 365
//
// The day count is the exact number of calendar days between the two dates.
// The divisor is 365 regardless of leap years; this is the one day-count
// convention the system commits to. The result is rounded to cents.
//
// Pure function. from == to yields zero. Callers guarantee to >= from; the
// builder validates event ordering before accruing.
func Accrue(balance, annualRatePercent decimal.Decimal, from, to Date) decimal.Decimal {
	days := DaysBetween(from, to)
	if days <= 0 {
		return decimal.Zero
	}
	interest := balance.
		Mul(annualRatePercent).
		Div(oneHundred).
		Mul(decimal.NewFromInt(int64(days))).
		Div(daysInYear)
	return Cents(interest)
}

// MonthlyInterestOn approximates one month of interest on a balance:
// balance * rate/100 / 12, rounded to cents. This is the reference amount the
// builder feeds to percent-type late fees in the absence of a real scheduled
// payment amount.
func MonthlyInterestOn(balance, annualRatePercent decimal.Decimal) decimal.Decimal {
	return Cents(balance.Mul(annualRatePercent).Div(oneHundred).Div(monthsInYear))
}
