package engine_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/shylock/servicing-engine/engine"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y, m, day int) engine.Date {
	return engine.NewDate(y, time.Month(m), day)
}

// =============================================================================
// ACT/365 ACCRUAL TESTS
// =============================================================================

func TestAccrue_SimpleInterest_73Days(t *testing.T) {
	// GIVEN: $10,000 at 5% APR
	// WHEN: 73 days elapse (exactly a fifth of a year)
	// THEN: Interest is 10000 * 0.05 * 73/365 = $100.00

	from := date(2025, 1, 1)
	to := date(2025, 3, 15)

	got := engine.Accrue(d("10000"), d("5"), from, to)

	assert.True(t, d("100.00").Equal(got), "expected 100.00, got %s", got)
}

func TestAccrue_SingleDay(t *testing.T) {
	// GIVEN: $10,000 at 5% APR
	// WHEN: One day elapses
	// THEN: Interest is 10000 * 0.05 / 365 = 1.3698... -> $1.37

	got := engine.Accrue(d("10000"), d("5"), date(2025, 1, 1), date(2025, 1, 2))

	assert.True(t, d("1.37").Equal(got), "expected 1.37, got %s", got)
}

func TestAccrue_SameDay_IsZero(t *testing.T) {
	// GIVEN: Any balance and rate
	// WHEN: from == to
	// THEN: No time elapsed, no interest

	got := engine.Accrue(d("10000"), d("5"), date(2025, 1, 1), date(2025, 1, 1))

	assert.True(t, got.IsZero())
}

func TestAccrue_ZeroRate_IsZero(t *testing.T) {
	// GIVEN: A 0% rate
	// WHEN: A year elapses
	// THEN: Zero interest

	got := engine.Accrue(d("10000"), d("0"), date(2025, 1, 1), date(2026, 1, 1))

	assert.True(t, got.IsZero())
}

func TestAccrue_ZeroBalance_IsZero(t *testing.T) {
	got := engine.Accrue(decimal.Zero, d("5"), date(2025, 1, 1), date(2025, 6, 1))

	assert.True(t, got.IsZero())
}

func TestAccrue_LeapYear_StillDividesBy365(t *testing.T) {
	// GIVEN: A full 2024 calendar year (366 days)
	// WHEN: Accruing at 5% on $10,000
	// THEN: The divisor stays 365, so interest exceeds the nominal annual
	//       amount: 10000 * 0.05 * 366/365 = $501.37

	got := engine.Accrue(d("10000"), d("5"), date(2024, 1, 1), date(2025, 1, 1))

	assert.True(t, d("501.37").Equal(got), "expected 501.37, got %s", got)
}

func TestAccrue_RoundsHalfAwayFromZero(t *testing.T) {
	// 1000 * 0.05 * 73/365 = 10.000 exactly; use a balance that lands on a
	// half cent: 36.50 * 0.05 * 100/365 = 0.5 -> rounds to $0.50 (no sub-cent
	// residue survives into the buckets).
	got := engine.Accrue(d("36.50"), d("5"), date(2025, 1, 1), date(2025, 4, 11))

	assert.True(t, d("0.50").Equal(got), "expected 0.50, got %s", got)
	assert.True(t, got.Equal(got.Round(2)), "accruals must land on whole cents")
}

// =============================================================================
// MONTHLY INTEREST REFERENCE
// =============================================================================

func TestMonthlyInterestOn(t *testing.T) {
	// GIVEN: $10,000 at 6% APR
	// THEN: One month of interest is 10000 * 0.06 / 12 = $50.00

	got := engine.MonthlyInterestOn(d("10000"), d("6"))

	assert.True(t, d("50.00").Equal(got), "expected 50.00, got %s", got)
}

func TestMonthlyInterestOn_RoundsToCents(t *testing.T) {
	// 10000 * 0.05 / 12 = 41.666... -> $41.67
	got := engine.MonthlyInterestOn(d("10000"), d("5"))

	assert.True(t, d("41.67").Equal(got), "expected 41.67, got %s", got)
}
