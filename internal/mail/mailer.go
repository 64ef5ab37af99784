// Package mail delivers notification email over SMTP.
package mail

import (
	"bytes"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/quickdesk/quickdesk/internal/config"
)

// ErrNotConfigured is returned when no SMTP relay is configured.
var ErrNotConfigured = errors.New("smtp not configured")

// Sender delivers a single HTML email.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// SMTPMailer sends mail through a configured relay.
type SMTPMailer struct {
	cfg    config.SMTPConfig
	server string
	auth   smtp.Auth
}

// NewSMTPMailer builds a mailer from config.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPMailer{
		cfg:    cfg,
		server: cfg.Host + ":" + cfg.Port,
		auth:   auth,
	}
}

// IsConfigured reports whether a relay host is set.
func (m *SMTPMailer) IsConfigured() bool {
	return m.cfg.Host != "" && m.cfg.Port != "" && m.cfg.From != ""
}

// Send delivers an HTML email to a single recipient.
func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	if !m.IsConfigured() {
		return ErrNotConfigured
	}

	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: text/html; charset=UTF-8\r\n")
	fmt.Fprintf(&msg, "\r\n")
	fmt.Fprintf(&msg, "%s\r\n", htmlBody)

	return smtp.SendMail(m.server, m.auth, m.cfg.From, []string{to}, msg.Bytes())
}
