package loan

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/shylock/servicing-engine/engine"
)

// =============================================================================
// JSON TERMS - terms definitions without code changes
// =============================================================================

// TermsJSON is the JSON shape for loan terms, so terms can sit in a config
// file, an admin UI, or a database column:
//
//	{
//	  "principal": "10000",
//	  "annual_rate": "5",
//	  "origination_date": "2025-01-01",
//	  "term_years": 30,
//	  "late_fee_type": "fixed",
//	  "late_fee_amount": "25",
//	  "grace_days": 10,
//	  "penalty_rate": "10"
//	}
//
// Monetary fields accept JSON numbers or strings; strings avoid float
// round-trips and are preferred.
type TermsJSON struct {
	Principal       decimal.Decimal  `json:"principal"`
	AnnualRate      *decimal.Decimal `json:"annual_rate,omitempty"`
	OriginationDate string           `json:"origination_date"`
	TermYears       int              `json:"term_years,omitempty"`
	LateFeeType     string           `json:"late_fee_type,omitempty"`
	LateFeeAmount   *decimal.Decimal `json:"late_fee_amount,omitempty"`
	GraceDays       *int             `json:"grace_days,omitempty"`
	PenaltyRate     *decimal.Decimal `json:"penalty_rate,omitempty"`
}

// ParseTerms converts a JSON terms definition into engine.LoanTerms,
// defaulting every omitted field the same way New does. The returned terms
// are validated; an error here is always a client error.
func ParseTerms(data []byte) (engine.LoanTerms, error) {
	var tj TermsJSON
	if err := json.Unmarshal(data, &tj); err != nil {
		return engine.LoanTerms{}, fmt.Errorf("parsing terms JSON: %w", err)
	}
	return tj.ToTerms()
}

// ToTerms applies defaults and converts to the engine type.
func (tj TermsJSON) ToTerms() (engine.LoanTerms, error) {
	origination, err := engine.ParseDate(tj.OriginationDate)
	if err != nil {
		return engine.LoanTerms{}, fmt.Errorf("origination_date %q: %w", tj.OriginationDate, err)
	}

	terms := engine.LoanTerms{
		Principal:       tj.Principal,
		AnnualRate:      DefaultAnnualRate,
		OriginationDate: origination,
		TermYears:       DefaultTermYears,
		LateFeeType:     engine.LateFeeFixed,
		LateFeeAmount:   DefaultLateFeeAmount,
		GraceDays:       DefaultGraceDays,
		PenaltyRate:     tj.PenaltyRate,
	}
	if tj.AnnualRate != nil {
		terms.AnnualRate = *tj.AnnualRate
	}
	if tj.TermYears > 0 {
		terms.TermYears = tj.TermYears
	}
	if tj.LateFeeType != "" {
		terms.LateFeeType = engine.LateFeeType(tj.LateFeeType)
	}
	if tj.LateFeeAmount != nil {
		terms.LateFeeAmount = *tj.LateFeeAmount
	}
	if tj.GraceDays != nil {
		terms.GraceDays = *tj.GraceDays
	}

	if err := validate(terms); err != nil {
		return engine.LoanTerms{}, err
	}
	return terms, nil
}

// validate runs the engine's own terms validation by computing an empty
// ledger; bad terms surface as engine.ErrInvalidTerms.
func validate(terms engine.LoanTerms) error {
	_, _, err := engine.Compute(terms, nil, engine.MonthlyAnniversarySchedule{Origination: terms.OriginationDate})
	return err
}
