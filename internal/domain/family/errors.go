package family

import (
	"errors"
	"fmt"
)

// ErrInviteNotFound is returned for any token that does not resolve to a
// live pending invitation. A token that was already used, rejected, or has
// aged out is indistinguishable from one that never existed.
var ErrInviteNotFound = errors.New("invalid or expired invitation")

// ErrMemberNotFound is returned when a family member record does not exist.
var ErrMemberNotFound = errors.New("family member not found")

// ErrNotAuthorized is returned when the caller does not own the record it is
// trying to change.
var ErrNotAuthorized = errors.New("not authorized")

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
