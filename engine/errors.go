/*
errors.go - Centralized error types for the ledger engine

ERROR CATEGORIES:
  1. Validation errors - malformed terms or payment records; the whole
     computation fails before any row is emitted (a partial ledger is worse
     than no ledger).
  2. Arithmetic errors - defensive, should be unreachable: the allocation
     buckets failed to reconstruct the payment amount.

There is no retry story: the engine is a pure deterministic computation, so
retrying identical input reproduces the identical error.
*/
package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTerms is returned when the loan terms are malformed or
	// out of range.
	ErrInvalidTerms = errors.New("invalid loan terms")

	// ErrInvalidPayment is returned when a payment record is malformed
	// (non-positive amount, dated before origination).
	ErrInvalidPayment = errors.New("invalid payment")

	// ErrArithmeticInconsistency is returned when allocation buckets fail to
	// sum to the payment amount. Defensive; indicates a bug, not bad input.
	ErrArithmeticInconsistency = errors.New("allocation does not sum to payment amount")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the offending record
// =============================================================================

// ValidationError identifies the record that failed validation. Index is the
// position in the caller-supplied payment list, or -1 for terms-level errors.
type ValidationError struct {
	Field string
	Index int
	Date  Date
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("payment %d (%s): %s: %s", e.Index, e.Date, e.Field, e.Msg)
	}
	return fmt.Sprintf("terms: %s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	if e.Index >= 0 {
		return ErrInvalidPayment
	}
	return ErrInvalidTerms
}

// ArithmeticError reports a conservation failure during allocation.
type ArithmeticError struct {
	PaymentAmount decimal.Decimal
	Allocated     decimal.Decimal
	Date          Date
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("allocation mismatch on %s: payment %s, allocated %s",
		e.Date, e.PaymentAmount.StringFixed(2), e.Allocated.StringFixed(2))
}

func (e *ArithmeticError) Unwrap() error {
	return ErrArithmeticInconsistency
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// (as opposed to an internal inconsistency).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTerms) || errors.Is(err, ErrInvalidPayment)
}
