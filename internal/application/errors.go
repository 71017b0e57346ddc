package application

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the caller has no valid session.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist or is not visible to the caller.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a unique attribute such as an email is taken.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when an email/password pair or a token does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned for sessions past their expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned for sessions that were logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrAlreadyCompleted is returned when the habit already has a completion for the calendar day.
	ErrAlreadyCompleted = errors.New("application: habit already completed today")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// StreakUpdateError reports that a completion was recorded but the streak
// record could not be brought up to date. The completion is not rolled back;
// the record is repaired from the completion log on the next analytics read
// or by the reconcile command.
type StreakUpdateError struct {
	Completion Completion
	Err        error
}

func (e *StreakUpdateError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("completion %s stored but streak update failed: %v", e.Completion.ID, e.Err)
}

func (e *StreakUpdateError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
