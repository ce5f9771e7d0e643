package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidOTP        = errors.New("invalid OTP")
	ErrExpiredOTP        = errors.New("OTP has expired")
	ErrNoActiveChallenge = errors.New("no active OTP challenge")
	ErrOTPNotVerified    = errors.New("OTP has not been verified")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrNotFound          = errors.New("not found")
	ErrDelivery          = errors.New("unable to deliver OTP")
	ErrRateLimited       = errors.New("too many requests")
)

// ValidationError carries a user-facing message and unwraps to ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
