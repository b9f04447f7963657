package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the referenced outflow or transaction does not exist in scope.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyTerminal indicates a mutation was attempted on a cleared or voided record.
	ErrAlreadyTerminal = errors.New("record is already cleared or voided")
	// ErrAlreadyMatched indicates the bank transaction is already consumed by another outflow.
	ErrAlreadyMatched = errors.New("transaction already matched to another outflow")
	// ErrConcurrencyConflict indicates an optimistic version mismatch that survived retries.
	ErrConcurrencyConflict = errors.New("record was modified concurrently")
)

// ValidationError reports a malformed input field. It is user-facing and
// never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError constructs a field-scoped validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserSafeMessage maps internal errors to messages suitable for API clients.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return "the requested record was not found"
	case errors.Is(err, ErrAlreadyTerminal):
		return "this payment was already matched or voided"
	case errors.Is(err, ErrAlreadyMatched):
		return "this bank transaction was already matched"
	case errors.Is(err, ErrConcurrencyConflict):
		return "the record changed while processing, please refresh and retry"
	default:
		return "an unexpected error occurred"
	}
}
