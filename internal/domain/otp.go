package domain

import "time"

type OTPStatus string

const (
	OTPPending  OTPStatus = "pending"
	OTPVerified OTPStatus = "verified"
)

// OTPChallenge is the single live password-reset challenge for an email.
// Issuing a new challenge replaces the previous one; a successful reset deletes it.
type OTPChallenge struct {
	ID         string
	Email      string
	CodeHash   string
	Status     OTPStatus
	Attempts   int
	CreatedAt  time.Time
	ExpiresAt  time.Time
	VerifiedAt *time.Time
}

func (c *OTPChallenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (c *OTPChallenge) IsVerified() bool {
	return c.Status == OTPVerified
}

func (c *OTPChallenge) Locked(maxAttempts int) bool {
	return maxAttempts > 0 && c.Attempts >= maxAttempts
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ProfileResponse struct {
	Message string        `json:"message"`
	Admin   *AdminProfile `json:"admin"`
}
