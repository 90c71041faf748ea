package statement

import (
	"fmt"
	"strings"

	"github.com/shylock/servicing-engine/engine"
)

// =============================================================================
// PLAIN-TEXT STATEMENT
// =============================================================================

// Meta carries the identifying header fields a statement shows above the
// numbers.
type Meta struct {
	LoanName     string
	LenderName   string
	BorrowerName string
	Terms        engine.LoanTerms
	GeneratedOn  engine.Date
}

// RenderText produces a complete plain-text statement: header, summary
// block, then the ledger table. Callers print it, mail it, or feed it to a
// PDF layer.
func RenderText(meta Meta, rows []engine.LedgerRow) string {
	var b strings.Builder

	name := meta.LoanName
	if name == "" {
		name = "Loan"
	}
	generated := meta.GeneratedOn
	if generated.IsZero() {
		generated = engine.Today()
	}

	fmt.Fprintf(&b, "Loan Statement\n")
	fmt.Fprintf(&b, "%s - Generated %s\n\n", name, generated.Time.Format("Jan 02, 2006"))
	fmt.Fprintf(&b, "Lender: %s\n", meta.LenderName)
	fmt.Fprintf(&b, "Borrower: %s\n", meta.BorrowerName)
	fmt.Fprintf(&b, "Origination: %s\n", meta.Terms.OriginationDate)
	fmt.Fprintf(&b, "APR: %s%% (ACT/365 simple interest)\n", meta.Terms.AnnualRate.StringFixed(3))
	fmt.Fprintf(&b, "Late Fee: %s %s; Grace: %d day(s); Penalty APR: %s%%\n\n",
		meta.Terms.LateFeeType,
		meta.Terms.LateFeeAmount.StringFixed(2),
		meta.Terms.GraceDays,
		meta.Terms.EffectivePenaltyRate().StringFixed(3))

	s := Summarize(meta.Terms, rows)
	fmt.Fprintf(&b, "Beginning Principal Balance: $%s\n", s.BeginningPrincipal.StringFixed(2))
	fmt.Fprintf(&b, "Payments Received (Total): $%s\n", s.TotalPayments.StringFixed(2))
	fmt.Fprintf(&b, "Allocated to Penalty Interest: $%s\n", s.ToPenaltyInterest.StringFixed(2))
	fmt.Fprintf(&b, "Allocated to Late Fees: $%s\n", s.ToLateFees.StringFixed(2))
	fmt.Fprintf(&b, "Allocated to Loan Interest: $%s\n", s.ToLoanInterest.StringFixed(2))
	fmt.Fprintf(&b, "Allocated to Principal: $%s\n", s.ToPrincipal.StringFixed(2))
	if s.TotalOverpayment.IsPositive() {
		fmt.Fprintf(&b, "Unapplied Overpayment: $%s\n", s.TotalOverpayment.StringFixed(2))
	}
	fmt.Fprintf(&b, "Ending Principal Balance: $%s\n", s.EndingPrincipal.StringFixed(2))
	fmt.Fprintf(&b, "Outstanding Late Fees: $%s\n", s.LateFeesOutstanding.StringFixed(2))
	fmt.Fprintf(&b, "Outstanding Penalty Interest: $%s\n\n", s.PenaltyInterestOutstanding.StringFixed(2))

	b.WriteString("Allocation order: Penalty Interest -> Late Fees -> Loan Interest -> Principal\n")
	b.WriteString("Disclaimer: This statement is informational only. Lender is responsible for any required legal disclosures.\n")

	if len(rows) > 0 {
		b.WriteString("\n")
		writeTable(&b, rows)
	}
	return b.String()
}

// writeTable renders the ledger rows as fixed-width columns.
func writeTable(b *strings.Builder, rows []engine.LedgerRow) {
	const rowFmt = "%-12s %-12s %12s %12s %12s %12s %12s %12s\n"
	fmt.Fprintf(b, rowFmt,
		"Due", "Paid", "Amount", "Pen Int", "Late Fees", "Interest", "Principal", "Balance")
	for _, r := range rows {
		fmt.Fprintf(b, rowFmt,
			r.DueDate.String(),
			r.PaymentDate.String(),
			r.PaymentAmount.StringFixed(2),
			r.AllocatedToPenaltyInterest.StringFixed(2),
			r.AllocatedToLateFees.StringFixed(2),
			r.AllocatedToLoanInterest.StringFixed(2),
			r.AllocatedToPrincipal.StringFixed(2),
			r.EndingPrincipal.StringFixed(2))
	}
}
