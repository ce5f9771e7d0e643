package domain

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	OTPLength         = 6
	MinPasswordLength = 8
)

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	otpPattern   = regexp.MustCompile(`^\d{6}$`)
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail requires a local part, an "@" and a dotted domain.
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email", "Email is required")
	}
	if !emailPattern.MatchString(email) {
		return invalid("email", "Please enter a valid email address")
	}
	return nil
}

// ValidatePassword enforces at least 8 characters (runes, not bytes) with at
// least one letter and one digit.
func ValidatePassword(field, password string) error {
	if password == "" {
		return invalid(field, "Password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid(field, "Password must be at least %d characters", MinPasswordLength)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return invalid(field, "Password must contain at least one letter and one number")
	}
	return nil
}

func ValidateOTP(otp string) error {
	if otp == "" {
		return invalid("otp", "OTP is required")
	}
	if !otpPattern.MatchString(otp) {
		return invalid("otp", "OTP must be exactly %d digits", OTPLength)
	}
	return nil
}
