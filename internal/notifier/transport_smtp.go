// internal/notifier/transport_smtp.go
package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/AdeptTechSolutions/Auto-GRC/internal/common/config"
)

// Transport delivers one message to one recipient.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPTransport sends through a plain SMTP server, optionally with STARTTLS.
type SMTPTransport struct {
	host     string
	port     int
	username string
	password string
	useTLS   bool
	from     string
}

func NewSMTPTransport(cfg config.MailConfig) *SMTPTransport {
	return &SMTPTransport{
		host:     cfg.SMTP.Host,
		port:     cfg.SMTP.Port,
		username: cfg.SMTP.Username,
		password: cfg.SMTP.Password,
		useTLS:   cfg.SMTP.UseTLS,
		from:     cfg.From,
	}
}

func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before sending email: %w", err)
	}

	message := t.buildMessage(to, subject, body)
	addr := fmt.Sprintf("%s:%d", t.host, t.port)

	var auth smtp.Auth
	if t.username != "" && t.password != "" {
		auth = smtp.PlainAuth("", t.username, t.password, t.host)
	}

	if t.useTLS {
		return t.sendWithTLS(addr, auth, to, []byte(message))
	}
	return smtp.SendMail(addr, auth, t.from, []string{to}, []byte(message))
}

func (t *SMTPTransport) buildMessage(to, subject, body string) string {
	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("From: %s\r\n", t.from))
	builder.WriteString(fmt.Sprintf("To: %s\r\n", to))
	builder.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	builder.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(body)

	return builder.String()
}

func (t *SMTPTransport) sendWithTLS(addr string, auth smtp.Auth, to string, msg []byte) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{
		ServerName:         t.host,
		InsecureSkipVerify: false,
	}

	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err = client.Mail(t.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data writer: %w", err)
	}

	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}
