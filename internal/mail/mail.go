// Package mail composes account emails and delivers them.  Senders are
// interchangeable: SMTP sends inline, Log only records the message, and
// the queue package publishes to RabbitMQ for the worker to send.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Message is a plain text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a message or reports why it could not.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// VerificationMessage is sent after registration and on resend.
func VerificationMessage(to, username, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your email",
		Body:    fmt.Sprintf("Hi %s,\nUse the link below to verify your email:\n%s\n", username, link),
	}
}

// PasswordResetMessage carries the reset link.
func PasswordResetMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Hello,\nUse the link below to reset your password:\n%s\n", link),
	}
}

// SMTPSender sends through an SMTP relay with PLAIN auth.  The whole
// exchange is bounded by the context deadline, or by Timeout when the
// context has none.
type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration

	send func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host string, port int, user, pass, from string) *SMTPSender {
	s := &SMTPSender{Host: host, Port: port, User: user, Password: pass, From: from, Timeout: 30 * time.Second}
	s.send = s.sendMail
	return s
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	if s == nil || s.Host == "" {
		return fmt.Errorf("smtp not configured")
	}
	if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.Subject, "\r\n") {
		return fmt.Errorf("smtp: invalid header value")
	}
	port := s.Port
	if port == 0 {
		port = 587
	}
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Password, s.Host)
	}
	send := s.send
	if send == nil {
		send = s.sendMail
	}
	return send(ctx, net.JoinHostPort(s.Host, strconv.Itoa(port)), auth, s.From, []string{m.To}, m.bytes(s.From))
}

// sendMail does what smtp.SendMail does over a connection that is closed
// when ctx ends, so a stalled relay cannot hold the caller.
func (s *SMTPSender) sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	if _, ok := ctx.Deadline(); !ok && s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, s.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("smtp greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("smtp starttls: %w", err)
		}
	}
	if a != nil {
		if err := c.Auth(a); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m Message) bytes(from string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + m.To + "\r\n" +
		"Subject: " + m.Subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + strings.ReplaceAll(m.Body, "\n", "\r\n"))
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	Log *zap.Logger
}

func (s LogSender) Send(_ context.Context, m Message) error {
	s.Log.Info("mail (log delivery)",
		zap.String("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body", m.Body))
	return nil
}
