package adminclient

import (
	"context"
	"fmt"

	"github.com/vedx/vedx-site/internal/domain"
)

type Step int

const (
	StepStart Step = iota
	StepAwaitingOTP
	StepOTPVerified
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepStart:
		return "forgot-password"
	case StepAwaitingOTP:
		return "verify-otp"
	case StepOTPVerified:
		return "reset-password"
	case StepComplete:
		return "complete"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// RedirectError is returned when a step is attempted without the state earlier
// steps leave behind. To names the first incomplete step.
type RedirectError struct {
	To Step
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("start again from %s", e.To)
}

// ResetAPI is the part of Client the wizard needs.
type ResetAPI interface {
	ForgotPassword(ctx context.Context, email string) (*domain.MessageResponse, error)
	ResendOTP(ctx context.Context, email string) (*domain.MessageResponse, error)
	VerifyOTP(ctx context.Context, email, otp string) (*domain.MessageResponse, error)
	ResetPassword(ctx context.Context, email, otp, newPassword string) (*domain.MessageResponse, error)
}

// ResetWizard walks forgot-password, verify-otp and reset-password in order.
// Checks here are for the user's benefit; the server re-validates everything.
type ResetWizard struct {
	api     ResetAPI
	session *Session
}

func NewResetWizard(api ResetAPI, session *Session) *ResetWizard {
	return &ResetWizard{api: api, session: session}
}

// Step reports where the wizard would resume.
func (w *ResetWizard) Step() (Step, error) {
	st, err := w.session.State()
	if err != nil {
		return StepStart, err
	}
	switch {
	case st.ResetEmail == "":
		return StepStart, nil
	case st.ResetOTP == "":
		return StepAwaitingOTP, nil
	default:
		return StepOTPVerified, nil
	}
}

// Email returns the address the wizard is resetting.
func (w *ResetWizard) Email() (string, error) {
	st, err := w.session.State()
	if err != nil {
		return "", err
	}
	return st.ResetEmail, nil
}

func (w *ResetWizard) Start(ctx context.Context, email string) (*domain.MessageResponse, error) {
	email = domain.NormalizeEmail(email)
	if err := domain.ValidateEmail(email); err != nil {
		return nil, err
	}
	res, err := w.api.ForgotPassword(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := w.session.setResetEmail(email); err != nil {
		return nil, err
	}
	return res, nil
}

// Resend asks for a fresh code. Any code verified earlier is forgotten since the
// server has replaced the challenge.
func (w *ResetWizard) Resend(ctx context.Context) (*domain.MessageResponse, error) {
	email, err := w.requireEmail()
	if err != nil {
		return nil, err
	}
	res, err := w.api.ResendOTP(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := w.session.setResetEmail(email); err != nil {
		return nil, err
	}
	return res, nil
}

func (w *ResetWizard) Verify(ctx context.Context, otp string) (*domain.MessageResponse, error) {
	email, err := w.requireEmail()
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateOTP(otp); err != nil {
		return nil, err
	}
	res, err := w.api.VerifyOTP(ctx, email, otp)
	if err != nil {
		return nil, err
	}
	if err := w.session.setResetOTP(otp); err != nil {
		return nil, err
	}
	return res, nil
}

// Reset sets the new password. On success both the reset state and any stored
// login are cleared, so the administrator has to log in again.
func (w *ResetWizard) Reset(ctx context.Context, newPassword, confirm string) (*domain.MessageResponse, error) {
	st, err := w.session.State()
	if err != nil {
		return nil, err
	}
	if st.ResetEmail == "" || st.ResetOTP == "" {
		return nil, &RedirectError{To: StepStart}
	}
	if err := domain.ValidatePassword("newPassword", newPassword); err != nil {
		return nil, err
	}
	if newPassword != confirm {
		return nil, &domain.ValidationError{Field: "confirmPassword", Message: "Passwords do not match"}
	}

	res, err := w.api.ResetPassword(ctx, st.ResetEmail, st.ResetOTP, newPassword)
	if err != nil {
		return nil, err
	}
	if err := w.session.ClearReset(); err != nil {
		return nil, err
	}
	if err := w.session.ClearLogin(); err != nil {
		return nil, err
	}
	return res, nil
}

// Abandon drops the wizard back to the start.
func (w *ResetWizard) Abandon() error {
	return w.session.ClearReset()
}

func (w *ResetWizard) requireEmail() (string, error) {
	st, err := w.session.State()
	if err != nil {
		return "", err
	}
	if st.ResetEmail == "" {
		return "", &RedirectError{To: StepStart}
	}
	return st.ResetEmail, nil
}
