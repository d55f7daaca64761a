package mailbox

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"mailroom/backend/internal/config"
)

// SMTPSender delivers replies over SMTP, one connection per send.
type SMTPSender struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool // implicit TLS; otherwise STARTTLS
}

// NewSMTPSender creates an SMTP sender configuration.
func NewSMTPSender(host, port, username, password string, useTLS bool) *SMTPSender {
	return &SMTPSender{
		Host:     host,
		Port:     port,
		Username: username,
		Password: password,
		TLS:      useTLS,
	}
}

// Send composes a plain-text message and makes a single delivery
// attempt. A failure at any step is returned as-is; nothing retries.
func (s *SMTPSender) Send(_ context.Context, to, subject, body string) error {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", s.Username))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := s.Host + ":" + s.Port
	if s.TLS {
		return s.sendWithTLS(addr, to, msg.String())
	}
	return s.sendWithStartTLS(addr, to, msg.String())
}

func (s *SMTPSender) sendWithTLS(addr, to, body string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.Host})
	if err != nil {
		return fmt.Errorf("TLS dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.Auth(s.auth()); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return s.transmit(client, to, body)
}

func (s *SMTPSender) sendWithStartTLS(addr, to, body string) error {
	conn, err := net.DialTimeout("tcp", addr, config.SMTPDialTimeout)
	if err != nil {
		return fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: s.Host}); err != nil {
		return fmt.Errorf("SMTP STARTTLS: %w", err)
	}

	if err := client.Auth(s.auth()); err != nil {
		return fmt.Errorf("SMTP auth: %w", err)
	}

	return s.transmit(client, to, body)
}

func (s *SMTPSender) auth() smtp.Auth {
	return smtp.PlainAuth("", s.Username, s.Password, s.Host)
}

func (s *SMTPSender) transmit(client *smtp.Client, to, body string) error {
	if err := client.Mail(s.Username); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := writer.Write([]byte(body)); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing message body: %w", err)
	}

	return client.Quit()
}
