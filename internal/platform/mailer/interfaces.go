package mailer

import (
	"context"
	"fmt"
	"time"

	"github.com/vedx/vedx-site/pkg/config"
)

type Service interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error)
	SendPasswordResetOTP(ctx context.Context, toEmail, toName, code string, ttl time.Duration) error
}

func passwordResetMessage(code string, ttl time.Duration) (subject, text, html string) {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	subject = "Your VEDX admin password reset code"
	text = fmt.Sprintf("Your password reset code is %s. It expires in %d minutes.\nIf you did not request a reset you can ignore this email.", code, minutes)
	html = fmt.Sprintf(`<p>Your password reset code is <b>%s</b>.</p>
<p>It expires in %d minutes.</p>
<p>If you did not request a reset you can ignore this email.</p>`, code, minutes)
	return subject, text, html
}

// sendPasswordReset renders the reset template and hands it to send.
func sendPasswordReset(ctx context.Context, s Service, toEmail, toName, code string, ttl time.Duration) error {
	subject, text, html := passwordResetMessage(code, ttl)
	_, err := s.Send(ctx, toEmail, toName, subject, text, html)
	return err
}

// New picks the delivery channel: the dev logger, MailerSend when an API key is
// configured, otherwise SMTP.
func New(cfg config.EmailConfig) Service {
	switch {
	case cfg.DevMode:
		return NewDevMailer()
	case cfg.MailerSendKey != "":
		return NewMailer(cfg.MailerSendKey, cfg.FromName, cfg.SMTPFrom)
	default:
		return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPUseTLS)
	}
}
