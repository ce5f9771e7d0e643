package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vedx/vedx-site/pkg/logger"
)

// DevMailer writes messages to the log instead of sending them. It is the only
// place an OTP code is ever logged.
type DevMailer struct{}

func NewDevMailer() *DevMailer { return &DevMailer{} }

func (d *DevMailer) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	id := uuid.NewString()
	logger.InfoContext(ctx, "Dev mail",
		"message_id", id,
		"to", toEmail,
		"subject", subject,
		"text", text,
	)
	return id, nil
}

func (d *DevMailer) SendPasswordResetOTP(ctx context.Context, toEmail, toName, code string, ttl time.Duration) error {
	return sendPasswordReset(ctx, d, toEmail, toName, code, ttl)
}
