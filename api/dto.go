/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY ON THE WIRE:
  Monetary values are JSON strings with two decimals ("9600.00"), never
  floats. Clients that want numbers can parse them; clients that want
  correctness will thank us.

SEE ALSO:
  - handlers.go: Uses these types
  - loan/terms.go: TermsJSON, the terms half of the contract
*/
package api

import (
	"github.com/shylock/servicing-engine/engine"
	"github.com/shylock/servicing-engine/loan"
	"github.com/shylock/servicing-engine/statement"
)

// =============================================================================
// REQUESTS
// =============================================================================

// CreateLoanRequest creates a loan. Terms fields are optional; omitted ones
// take the standard defaults.
type CreateLoanRequest struct {
	Name          string         `json:"name,omitempty"`
	LenderName    string         `json:"lender_name,omitempty"`
	BorrowerName  string         `json:"borrower_name"`
	BorrowerEmail string         `json:"borrower_email,omitempty"`
	Terms         loan.TermsJSON `json:"terms"`
}

// UpdateLoanRequest replaces a loan's editable fields. The share token and
// identity are not editable through this route.
type UpdateLoanRequest struct {
	Name          string         `json:"name,omitempty"`
	LenderName    string         `json:"lender_name,omitempty"`
	BorrowerName  string         `json:"borrower_name,omitempty"`
	BorrowerEmail string         `json:"borrower_email,omitempty"`
	Terms         loan.TermsJSON `json:"terms"`
}

// AddPaymentRequest records one payment event.
type AddPaymentRequest struct {
	Date   string `json:"date"`   // YYYY-MM-DD
	Amount string `json:"amount"` // decimal string
}

// ReplacePaymentsRequest swaps the full payment history.
type ReplacePaymentsRequest struct {
	Payments []AddPaymentRequest `json:"payments"`
}

// =============================================================================
// RESPONSES
// =============================================================================

// LoanDTO is the outward shape of a loan. The share token is only included
// on routes the lender calls; the borrower share view never sees it.
type LoanDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LenderName    string `json:"lender_name,omitempty"`
	BorrowerName  string `json:"borrower_name"`
	BorrowerEmail string `json:"borrower_email,omitempty"`
	ShareToken    string `json:"share_token,omitempty"`

	Principal       string  `json:"principal"`
	AnnualRate      string  `json:"annual_rate"`
	OriginationDate string  `json:"origination_date"`
	TermYears       int     `json:"term_years"`
	LateFeeType     string  `json:"late_fee_type"`
	LateFeeAmount   string  `json:"late_fee_amount"`
	GraceDays       int     `json:"grace_days"`
	PenaltyRate     *string `json:"penalty_rate,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// LedgerRowDTO is one computed ledger row.
type LedgerRowDTO struct {
	DueDate       string `json:"due_date"`
	PaymentDate   string `json:"payment_date"`
	PaymentAmount string `json:"payment_amount"`

	AccruedLoanInterest    string `json:"accrued_loan_interest"`
	AccruedPenaltyInterest string `json:"accrued_penalty_interest"`
	LateFeeAssessed        string `json:"late_fee_assessed"`

	AllocatedToPenaltyInterest string `json:"allocated_to_penalty_interest"`
	AllocatedToLateFees        string `json:"allocated_to_late_fees"`
	AllocatedToLoanInterest    string `json:"allocated_to_loan_interest"`
	AllocatedToPrincipal       string `json:"allocated_to_principal"`
	Overpayment                string `json:"overpayment,omitempty"`

	EndingPrincipal                  string `json:"ending_principal"`
	EndingLateFeesOutstanding        string `json:"ending_late_fees_outstanding"`
	EndingPenaltyInterestOutstanding string `json:"ending_penalty_interest_outstanding"`
}

// BalanceDTO is the running state after the last event, optionally projected
// forward to an as-of date.
type BalanceDTO struct {
	AsOf                       string `json:"as_of"`
	PrincipalBalance           string `json:"principal_balance"`
	UnpaidLoanInterest         string `json:"unpaid_loan_interest"`
	LateFeesOutstanding        string `json:"late_fees_outstanding"`
	PenaltyInterestOutstanding string `json:"penalty_interest_outstanding"`
	TotalOutstanding           string `json:"total_outstanding"`
}

// LedgerResponse bundles the rows with the resulting balance.
type LedgerResponse struct {
	LoanID  string         `json:"loan_id"`
	Rows    []LedgerRowDTO `json:"rows"`
	Balance BalanceDTO     `json:"balance"`
}

// SummaryDTO mirrors statement.Summary for JSON clients.
type SummaryDTO struct {
	BeginningPrincipal string `json:"beginning_principal"`
	TotalPayments      string `json:"total_payments"`

	ToPenaltyInterest string `json:"allocated_to_penalty_interest"`
	ToLateFees        string `json:"allocated_to_late_fees"`
	ToLoanInterest    string `json:"allocated_to_loan_interest"`
	ToPrincipal       string `json:"allocated_to_principal"`
	TotalOverpayment  string `json:"total_overpayment,omitempty"`

	EndingPrincipal            string `json:"ending_principal"`
	LateFeesOutstanding        string `json:"late_fees_outstanding"`
	PenaltyInterestOutstanding string `json:"penalty_interest_outstanding"`
}

// ImportResultDTO reports a CSV import.
type ImportResultDTO struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

// ShareTokenDTO returns a (re)issued share token.
type ShareTokenDTO struct {
	ShareToken string `json:"share_token"`
}

// ErrorResponse is the uniform error shape.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toLoanDTO(l *loan.Loan, includeToken bool) LoanDTO {
	dto := LoanDTO{
		ID:              l.ID.String(),
		Name:            l.Name,
		LenderName:      l.LenderName,
		BorrowerName:    l.BorrowerName,
		BorrowerEmail:   l.BorrowerEmail,
		Principal:       l.Principal.StringFixed(2),
		AnnualRate:      l.AnnualRate.String(),
		OriginationDate: l.OriginationDate.String(),
		TermYears:       l.TermYears,
		LateFeeType:     string(l.LateFeeType),
		LateFeeAmount:   l.LateFeeAmount.StringFixed(2),
		GraceDays:       l.GraceDays,
		CreatedAt:       l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:       l.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if includeToken {
		dto.ShareToken = l.ShareToken
	}
	if l.PenaltyRate != nil {
		s := l.PenaltyRate.String()
		dto.PenaltyRate = &s
	}
	return dto
}

func toLedgerRowDTO(r engine.LedgerRow) LedgerRowDTO {
	dto := LedgerRowDTO{
		DueDate:       r.DueDate.String(),
		PaymentDate:   r.PaymentDate.String(),
		PaymentAmount: r.PaymentAmount.StringFixed(2),

		AccruedLoanInterest:    r.AccruedLoanInterest.StringFixed(2),
		AccruedPenaltyInterest: r.AccruedPenaltyInterest.StringFixed(2),
		LateFeeAssessed:        r.LateFeeAssessed.StringFixed(2),

		AllocatedToPenaltyInterest: r.AllocatedToPenaltyInterest.StringFixed(2),
		AllocatedToLateFees:        r.AllocatedToLateFees.StringFixed(2),
		AllocatedToLoanInterest:    r.AllocatedToLoanInterest.StringFixed(2),
		AllocatedToPrincipal:       r.AllocatedToPrincipal.StringFixed(2),

		EndingPrincipal:                  r.EndingPrincipal.StringFixed(2),
		EndingLateFeesOutstanding:        r.EndingLateFeesOutstanding.StringFixed(2),
		EndingPenaltyInterestOutstanding: r.EndingPenaltyInterestOutstanding.StringFixed(2),
	}
	if r.HasOverpayment() {
		dto.Overpayment = r.Overpayment.StringFixed(2)
	}
	return dto
}

func toLedgerRowDTOs(rows []engine.LedgerRow) []LedgerRowDTO {
	dtos := make([]LedgerRowDTO, 0, len(rows))
	for _, r := range rows {
		dtos = append(dtos, toLedgerRowDTO(r))
	}
	return dtos
}

func toBalanceDTO(state engine.RunningState) BalanceDTO {
	return BalanceDTO{
		AsOf:                       state.LastEventDate.String(),
		PrincipalBalance:           state.PrincipalBalance.StringFixed(2),
		UnpaidLoanInterest:         state.UnpaidLoanInterest.StringFixed(2),
		LateFeesOutstanding:        state.LateFeesOutstanding.StringFixed(2),
		PenaltyInterestOutstanding: state.PenaltyInterestOutstanding.StringFixed(2),
		TotalOutstanding:           state.TotalOutstanding().StringFixed(2),
	}
}

func toSummaryDTO(s statement.Summary) SummaryDTO {
	dto := SummaryDTO{
		BeginningPrincipal:         s.BeginningPrincipal.StringFixed(2),
		TotalPayments:              s.TotalPayments.StringFixed(2),
		ToPenaltyInterest:          s.ToPenaltyInterest.StringFixed(2),
		ToLateFees:                 s.ToLateFees.StringFixed(2),
		ToLoanInterest:             s.ToLoanInterest.StringFixed(2),
		ToPrincipal:                s.ToPrincipal.StringFixed(2),
		EndingPrincipal:            s.EndingPrincipal.StringFixed(2),
		LateFeesOutstanding:        s.LateFeesOutstanding.StringFixed(2),
		PenaltyInterestOutstanding: s.PenaltyInterestOutstanding.StringFixed(2),
	}
	if s.TotalOverpayment.IsPositive() {
		dto.TotalOverpayment = s.TotalOverpayment.StringFixed(2)
	}
	return dto
}
