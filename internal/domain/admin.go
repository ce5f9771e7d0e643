package domain

import (
	"strings"
	"time"
)

// Admin is the single administrator account. The store is still keyed by id so
// more accounts can be added without changing callers.
type Admin struct {
	ID           string    `json:"id"`
	Identifier   string    `json:"identifier"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type AdminProfile struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
}

func (a *Admin) ToProfile() *AdminProfile {
	return &AdminProfile{
		ID:         a.ID,
		Identifier: a.Identifier,
		Email:      a.Email,
		FirstName:  a.FirstName,
		LastName:   a.LastName,
	}
}

type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Message   string        `json:"message"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     *AdminProfile `json:"admin"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (r *LoginRequest) Normalize() {
	r.Identifier = strings.TrimSpace(r.Identifier)
	if strings.Contains(r.Identifier, "@") {
		r.Identifier = NormalizeEmail(r.Identifier)
	}
}

func (r *LoginRequest) Validate() error {
	if r.Identifier == "" {
		return invalid("identifier", "Email or phone is required")
	}
	if r.Password == "" {
		return invalid("password", "Password is required")
	}
	return nil
}

func (r *ForgotPasswordRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
}

func (r *ForgotPasswordRequest) Validate() error {
	return ValidateEmail(r.Email)
}

func (r *VerifyOTPRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *VerifyOTPRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	return ValidateOTP(r.OTP)
}

func (r *ResetPasswordRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.OTP = strings.TrimSpace(r.OTP)
}

func (r *ResetPasswordRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := ValidateOTP(r.OTP); err != nil {
		return err
	}
	return ValidatePassword("newPassword", r.NewPassword)
}

func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return invalid("currentPassword", "Current password is required")
	}
	return ValidatePassword("newPassword", r.NewPassword)
}

func (r *UpdateProfileRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = NormalizeEmail(r.Email)
}

func (r *UpdateProfileRequest) Validate() error {
	if r.FirstName == "" && r.LastName == "" {
		return invalid("firstName", "First name or last name is required")
	}
	return ValidateEmail(r.Email)
}
