/*
Package statement turns ledger rows into borrower-facing artifacts.

PURPOSE:
  The engine produces rows; this package presents them. Three outputs:

  - WriteCSV: The full ledger as a spreadsheet-ready CSV
  - Summarize: Period totals computed from the rows alone
  - RenderText: A plain-text statement (header, summary, ledger table)

  Everything here is derived from LedgerRow values. The summary never
  recomputes interest or fees; if a number cannot be reconstructed from the
  rows, it does not belong on a statement.
*/
package statement

import (
	"github.com/shopspring/decimal"

	"github.com/shylock/servicing-engine/engine"
)

// =============================================================================
// SUMMARY
// =============================================================================

// Summary is the roll-up block at the top of a statement.
type Summary struct {
	BeginningPrincipal decimal.Decimal
	TotalPayments      decimal.Decimal

	ToPenaltyInterest decimal.Decimal
	ToLateFees        decimal.Decimal
	ToLoanInterest    decimal.Decimal
	ToPrincipal       decimal.Decimal
	TotalOverpayment  decimal.Decimal

	EndingPrincipal            decimal.Decimal
	LateFeesOutstanding        decimal.Decimal
	PenaltyInterestOutstanding decimal.Decimal
}

// Summarize folds ledger rows into statement totals. With no rows, the
// summary shows the untouched principal from the terms.
func Summarize(terms engine.LoanTerms, rows []engine.LedgerRow) Summary {
	if len(rows) == 0 {
		p := engine.Cents(terms.Principal)
		return Summary{BeginningPrincipal: p, EndingPrincipal: p}
	}

	first, last := rows[0], rows[len(rows)-1]
	s := Summary{
		BeginningPrincipal:         first.EndingPrincipal.Add(first.AllocatedToPrincipal),
		EndingPrincipal:            last.EndingPrincipal,
		LateFeesOutstanding:        last.EndingLateFeesOutstanding,
		PenaltyInterestOutstanding: last.EndingPenaltyInterestOutstanding,
	}
	for _, r := range rows {
		s.TotalPayments = s.TotalPayments.Add(r.PaymentAmount)
		s.ToPenaltyInterest = s.ToPenaltyInterest.Add(r.AllocatedToPenaltyInterest)
		s.ToLateFees = s.ToLateFees.Add(r.AllocatedToLateFees)
		s.ToLoanInterest = s.ToLoanInterest.Add(r.AllocatedToLoanInterest)
		s.ToPrincipal = s.ToPrincipal.Add(r.AllocatedToPrincipal)
		s.TotalOverpayment = s.TotalOverpayment.Add(r.Overpayment)
	}
	return s
}
