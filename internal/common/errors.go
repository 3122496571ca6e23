// Package common defines shared constants, sentinel errors and small helpers
// used across the account service, the category service and the client.
// Callers should use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Access errors.
	ErrAuthentication = errors.New("invalid credentials")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")

	// Domain-specific conflicts.
	ErrDuplicateUser   = fmt.Errorf("%w: user name or email already taken", ErrConflict)
	ErrAlreadyVerified = fmt.Errorf("%w: email already verified", ErrConflict)
	ErrRateLimited     = fmt.Errorf("%w: too many outstanding tokens", ErrConflict)

	// Time-based rejections.
	ErrExpired      = errors.New("expired")
	ErrTokenExpired = fmt.Errorf("token %w", ErrExpired)

	// Cryptographic failures.
	ErrSigning      = errors.New("signing error")
	ErrInvalidToken = errors.New("invalid token")

	// Programming errors around explicit transaction handles.
	ErrTransactionState = errors.New("invalid transaction state")

	// Collaborator failures.
	ErrDelivery = errors.New("notification delivery failed")

	ErrInternal = errors.New("internal error")
)

// ValidationError reports which values of an input field were rejected.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Values []string
	Reason string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("validation error: ")
	b.WriteString(e.Field)
	if e.Reason != "" {
		b.WriteString(" ")
		b.WriteString(e.Reason)
	}
	if len(e.Values) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Values, ", "))
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
