package amortization

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned (wrapped) for calculator inputs outside the accepted ranges.
var ErrInvalidInput = errors.New("invalid loan input")

// InputError names the offending field.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
