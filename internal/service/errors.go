package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Validation error codes
const (
	CodeInvalidAssociation     = "INVALID_ASSOCIATION"
	CodeMissingAssociation     = "MISSING_ASSOCIATION"
	CodeUnsupportedAssociation = "UNSUPPORTED_ASSOCIATION_TYPE"
	CodeInvalidAmount          = "INVALID_AMOUNT"
)

var (
	// ErrNotFound — the referenced entity does not exist or belongs to a
	// different organization than the caller.
	ErrNotFound = errors.New("not found")

	// ErrConflict — uniqueness or in-use constraint violated; the caller
	// gets a user-actionable message, the operation is never retried.
	ErrConflict = errors.New("conflict")

	// ErrStorageUnavailable — transient infrastructure failure. Propagated
	// without retry; retry policy belongs to the calling layer.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ValidationError reports which specific invariant the caller's input
// violated, so the surface layer can render an actionable message.
type ValidationError struct {
	Code    string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Code + ": " + e.Field + ": " + e.Message
	}
	return e.Code + ": " + e.Message
}

func invalidAssociation(field, msg string) error {
	return &ValidationError{Code: CodeInvalidAssociation, Field: field, Message: msg}
}

func missingAssociation(msg string) error {
	return &ValidationError{Code: CodeMissingAssociation, Message: msg}
}

func unsupportedAssociation(field, msg string) error {
	return &ValidationError{Code: CodeUnsupportedAssociation, Field: field, Message: msg}
}

func invalidAmount(msg string) error {
	return &ValidationError{Code: CodeInvalidAmount, Field: "amount", Message: msg}
}

// notFoundOr maps gorm's record-not-found onto ErrNotFound and everything
// else onto ErrStorageUnavailable, naming the entity that failed.
func notFoundOr(entity string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %w", entity, ErrNotFound)
	}
	return fmt.Errorf("%w: failed to look up %s: %v", ErrStorageUnavailable, entity, err)
}

// storageErr wraps an infrastructure failure so callers can match on
// ErrStorageUnavailable while the log keeps the root cause.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

func conflictErr(msg string) error {
	return fmt.Errorf("%w: %s", ErrConflict, msg)
}
