package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	ErrEventNotFound    = errors.New("event not found")
	ErrNotOwner         = errors.New("not the event owner")
	ErrAlreadyAttending = errors.New("already attending this event")
	ErrEventFull        = errors.New("event is full")
)

// ValidationError carries the offending field so handlers can surface it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
