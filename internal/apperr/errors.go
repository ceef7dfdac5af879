// Package apperr holds the error kinds returned by the credential and catalog
// stores. Callers match them with errors.As and translate them into responses.
package apperr

import "fmt"

// ValidationError is returned for malformed or mismatched input, before any
// storage access happens.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError is returned when a uniqueness constraint rejects a write.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NotFoundError is returned when the referenced entity does not exist.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// AuthError is returned when a password does not match the stored hash.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// PersistenceError wraps an underlying storage failure. The message of the
// wrapped error is passed through unchanged.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError for the given operation.
func Persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
