package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"outreach-engine-go/internal/config"
)

// SMTPSender delivers mail over plain SMTP. Used when no Gmail OAuth
// credentials are available.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
}

// NewSMTPSender creates an SMTP sender from mailer configuration.
func NewSMTPSender(cfg *config.MailerConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		user:     cfg.SMTPUser,
		password: cfg.SMTPPassword,
	}
}

// Send delivers one message via a fresh SMTP dial.
func (s *SMTPSender) Send(ctx context.Context, msg Message) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m := gomail.NewMessage()
	if msg.FromName != "" {
		m.SetAddressHeader("From", msg.From, msg.FromName)
	} else {
		m.SetHeader("From", msg.From)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	d := gomail.NewDialer(s.host, s.port, s.user, s.password)
	if err := d.DialAndSend(m); err != nil {
		return nil, fmt.Errorf("smtp send failed: %w", err)
	}
	return &Response{Provider: "smtp"}, nil
}
