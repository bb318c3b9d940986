package domain

import "errors"

var (
	// ErrNotFound covers unknown users and links that are missing or owned by someone else
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for bad credentials
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrTransientStorage marks storage failures worth a single retry on reads
	ErrTransientStorage = errors.New("transient storage error")
)

// ValidationError is a rejected input with a message safe to show the caller
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ConflictError reports a uniqueness clash such as a taken username
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
