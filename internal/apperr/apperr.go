package apperr

import (
	"errors"
	"fmt"
)

// ErrNotFound marks a record-store miss. It is always wrapped in a
// StoreError so callers can check it with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrInviteNotFound is returned when an invite code resolves to no challenge.
// Kept distinct from StoreError so the UI can phrase it specially.
var ErrInviteNotFound = errors.New("invite not found")

// ValidationError reports bad caller input; no external call was made
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError reports an identity-service rejection, including wrong
// credentials and "requires recent login"
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// StoreError reports a document-store failure (transport, permission or
// not-found)
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// BlobError reports an object-store failure
type BlobError struct {
	Op  string
	Err error
}

func (e *BlobError) Error() string {
	return fmt.Sprintf("blob %s: %v", e.Op, e.Err)
}

func (e *BlobError) Unwrap() error { return e.Err }

// Validation builds a ValidationError
func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Auth wraps err as an AuthError
func Auth(op string, err error) error {
	return &AuthError{Op: op, Err: err}
}

// Store wraps err as a StoreError
func Store(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Blob wraps err as a BlobError
func Blob(op string, err error) error {
	return &BlobError{Op: op, Err: err}
}

// IsNotFound reports whether err is a record-store miss
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
