// Package mailer selects and drives the outbound SMTP transport: the
// authenticated production relay (STARTTLS) or the local inspection endpoint
// used during development (plain SMTP on loopback, no auth).
package mailer

import (
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ise-alumni/portal-sub001/config"
)

// TransportError wraps whatever the SMTP session returned. The relay's text
// is kept for server logs; handlers decide how much of it to surface.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mail transport %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Mailer interface {
	Send(to, subject, html, from string) error
	Configured() bool
	DefaultFrom() string
}

type smtpMailer struct {
	host     string
	addr     string
	auth     smtp.Auth
	useTLS   bool
	from     string
	fromName string
	hasCreds bool
}

// New builds the transport for the environment resolved once at startup.
// production selects the authenticated relay; anything else selects the local
// inspection endpoint. The choice is an explicit configuration value, not a
// guess derived from the public base URL.
func New(cfg *config.EmailConfig, production bool) Mailer {
	m := &smtpMailer{
		from:     cfg.From,
		fromName: cfg.FromName,
	}

	if production {
		m.host = cfg.RelayHost
		m.addr = fmt.Sprintf("%s:%d", cfg.RelayHost, cfg.RelayPort)
		m.useTLS = true
		m.hasCreds = cfg.Username != "" && cfg.Password != ""
		if m.hasCreds {
			m.auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.RelayHost)
		}
	} else {
		m.host = cfg.LocalHost
		m.addr = fmt.Sprintf("%s:%d", cfg.LocalHost, cfg.LocalPort)
		m.hasCreds = true // local endpoint needs none
	}

	return m
}

// Configured reports whether the transport has everything it needs to send.
// Only the production relay can be unconfigured (missing credentials).
func (m *smtpMailer) Configured() bool { return m.hasCreds }

// DefaultFrom returns the configured sender as a display-name address.
func (m *smtpMailer) DefaultFrom() string {
	if m.fromName == "" {
		return m.from
	}
	return fmt.Sprintf("%s <%s>", m.fromName, m.from)
}

// Send delivers a single HTML message. The SMTP session is closed on every
// exit path; there is no internal retry, callers own retry policy.
func (m *smtpMailer) Send(to, subject, html, from string) error {
	if from == "" {
		from = m.DefaultFrom()
	}

	c, err := smtp.Dial(m.addr)
	if err != nil {
		return &TransportError{Op: "dial", Err: err}
	}
	defer c.Close()

	if m.useTLS {
		if err := c.StartTLS(&tls.Config{ServerName: m.host, MinVersion: tls.VersionTLS12}); err != nil {
			return &TransportError{Op: "starttls", Err: err}
		}
	}

	if m.auth != nil {
		if err := c.Auth(m.auth); err != nil {
			return &TransportError{Op: "auth", Err: err}
		}
	}

	if err := c.Mail(bareAddress(from)); err != nil {
		return &TransportError{Op: "mail", Err: err}
	}
	if err := c.Rcpt(to); err != nil {
		return &TransportError{Op: "rcpt", Err: err}
	}

	w, err := c.Data()
	if err != nil {
		return &TransportError{Op: "data", Err: err}
	}
	if _, err := w.Write(buildMessage(to, subject, html, from)); err != nil {
		w.Close()
		return &TransportError{Op: "write", Err: err}
	}
	if err := w.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}

	return c.Quit()
}

func buildMessage(to, subject, html, from string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}

// bareAddress strips an optional display name: "Name <a@b>" -> "a@b".
func bareAddress(addr string) string {
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		return strings.TrimRight(addr[i+1:], ">")
	}
	return addr
}
