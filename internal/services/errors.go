package services

import "errors"

var (
	ErrShareNotFound     = errors.New("share not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrPasswordRequired  error = authError("password is required")
	ErrInvalidPassword   error = authError("invalid password")
	ErrSlugTaken         = errors.New("slug already exists")
	ErrInvalidTransition = errors.New("cannot change a private link to public")
	ErrPayloadTooLarge   = errors.New("payload too large")
	ErrSlugExhausted     = errors.New("could not allocate a unique slug")
	ErrValidation        = errors.New("validation failed")
)

// authError keeps its own message but matches ErrUnauthorized.
type authError string

func (e authError) Error() string { return string(e) }

func (e authError) Is(target error) bool { return target == ErrUnauthorized }

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
