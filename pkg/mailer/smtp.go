// Package mailer sends plain-text notification email over SMTP.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer delivers a message to a single recipient.
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends mail through a single SMTP relay. Auth is skipped when
// no username is configured, which is the usual local-relay setup.
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// New constructs an SMTPMailer.
func New(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

// Send delivers one plain-text message.
func (m *SMTPMailer) Send(to, subject, body string) error {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}
