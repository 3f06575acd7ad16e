package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("ledger: invalid input")
	ErrInvalidQuantity   = errors.New("ledger: invalid session quantity")
	ErrNoCreditAvailable = errors.New("ledger: no credit available")
	ErrGateway           = errors.New("ledger: payment gateway failure")
	ErrInvalidSignature  = errors.New("ledger: webhook validation failed")
	ErrNotFound          = errors.New("ledger: not found")
	ErrStore             = errors.New("ledger: store failure")
)

// ValidationError represents a validation failure with details. It matches
// ErrValidation and, when set, Err.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
