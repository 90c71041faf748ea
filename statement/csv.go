package statement

import (
	"encoding/csv"
	"io"

	"github.com/shylock/servicing-engine/engine"
)

// =============================================================================
// CSV EXPORT
// =============================================================================

// csvHeader is the fixed export shape. Downstream spreadsheets key on these
// names and this order; do not reorder.
var csvHeader = []string{
	"Due Date",
	"Payment Date",
	"Payment Amount",
	"Accrued Loan Interest",
	"Accrued Penalty Interest",
	"Late Fee Assessed",
	"Allocated → Penalty Interest",
	"Allocated → Late Fees",
	"Allocated → Loan Interest",
	"Allocated → Principal",
	"Ending Principal",
	"Ending Late Fees Outstanding",
	"Ending Penalty Interest Outstanding",
}

// WriteCSV writes the full ledger, one row per payment, dates as YYYY-MM-DD
// and money as plain two-decimal numbers (no currency symbols; spreadsheets
// handle formatting).
func WriteCSV(w io.Writer, rows []engine.LedgerRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.DueDate.String(),
			r.PaymentDate.String(),
			r.PaymentAmount.StringFixed(2),
			r.AccruedLoanInterest.StringFixed(2),
			r.AccruedPenaltyInterest.StringFixed(2),
			r.LateFeeAssessed.StringFixed(2),
			r.AllocatedToPenaltyInterest.StringFixed(2),
			r.AllocatedToLateFees.StringFixed(2),
			r.AllocatedToLoanInterest.StringFixed(2),
			r.AllocatedToPrincipal.StringFixed(2),
			r.EndingPrincipal.StringFixed(2),
			r.EndingLateFeesOutstanding.StringFixed(2),
			r.EndingPenaltyInterestOutstanding.StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
