package tracking

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAccountNotFound is returned when no account has the given ID.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountInactive is returned when modifying a soft-deleted account.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrInvalidTerms is returned for malformed account terms or events.
	ErrInvalidTerms = errors.New("invalid account terms")

	// ErrPaymentTooLow is returned when the payment does not exceed one
	// month of interest, so the loan would never amortize.
	ErrPaymentTooLow = errors.New("monthly payment does not cover interest")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// TermsError names the offending field.
type TermsError struct {
	Field   string
	Message string
}

func (e *TermsError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *TermsError) Unwrap() error {
	return ErrInvalidTerms
}

// PaymentTooLowError carries the minimum payment the user must exceed.
type PaymentTooLowError struct {
	Payment         decimal.Decimal
	MinimumRequired decimal.Decimal
}

func (e *PaymentTooLowError) Error() string {
	return fmt.Sprintf("monthly payment %s must exceed monthly interest %s",
		e.Payment.StringFixed(2), e.MinimumRequired.StringFixed(2))
}

func (e *PaymentTooLowError) Unwrap() error {
	return ErrPaymentTooLow
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTerms) ||
		errors.Is(err, ErrPaymentTooLow) ||
		errors.Is(err, ErrAccountInactive)
}

// IsNotFound returns true if the error indicates a missing account.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound)
}
