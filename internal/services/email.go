package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"pwreset/internal/config"
	"pwreset/internal/logger"
	helpers "pwreset/internal/utils/helpers"

	"go.uber.org/zap"
)

const resetCodeSubject = "Password recovery code"

// MailError — сбой на конкретном шаге SMTP-диалога.
type MailError struct {
	Op  string
	Err error
}

func (e *MailError) Error() string { return "smtp " + e.Op + ": " + e.Err.Error() }

func (e *MailError) Unwrap() error { return e.Err }

type EmailService struct {
	host       string
	port       string
	user       string
	password   string
	from       string
	requireTLS bool
	timeout    time.Duration
	codeTTL    time.Duration
	tlsConfig  *tls.Config

	// nil — обычный net.Dialer с timeout
	dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewEmailService(cfg *config.Config) *EmailService {
	timeout := cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailService{
		host:       cfg.SMTPHost,
		port:       cfg.SMTPPort,
		user:       cfg.SMTPUser,
		password:   cfg.SMTPPassword,
		from:       cfg.SMTPFrom,
		requireTLS: cfg.SMTPRequireTLS,
		timeout:    timeout,
		codeTTL:    cfg.ResetCodeTTL,
		tlsConfig:  &tls.Config{ServerName: cfg.SMTPHost, MinVersion: tls.VersionTLS12},
	}
}

// SendResetCode отправляет письмо с кодом восстановления.
func (s *EmailService) SendResetCode(ctx context.Context, to, code string) error {
	return s.Send(ctx, to, resetCodeSubject, helpers.BuildResetCodeText(code, s.codeTTL))
}

// Send — одно письмо: dial -> EHLO -> STARTTLS -> AUTH -> MAIL/RCPT/DATA -> QUIT.
// Повторов нет.
func (s *EmailService) Send(ctx context.Context, to, subject, body string) error {
	addr := net.JoinHostPort(s.host, s.port)

	dial := s.dial
	if dial == nil {
		dial = (&net.Dialer{Timeout: s.timeout}).DialContext
	}
	conn, err := dial(ctx, "tcp", addr)
	if err != nil {
		return &MailError{Op: "dial", Err: err}
	}
	defer conn.Close()

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return &MailError{Op: "dial", Err: err}
	}

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return &MailError{Op: "greeting", Err: err}
	}
	defer c.Close()

	if err := c.Hello("localhost"); err != nil {
		return &MailError{Op: "ehlo", Err: err}
	}

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(s.tlsConfig); err != nil {
			return &MailError{Op: "starttls", Err: err}
		}
	} else if s.requireTLS {
		return &MailError{Op: "starttls", Err: errors.New("server does not support STARTTLS")}
	}

	if s.user != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return &MailError{Op: "auth", Err: errors.New("server does not support AUTH")}
		}
		if err := c.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
			return &MailError{Op: "auth", Err: err}
		}
	}

	if err := c.Mail(s.from); err != nil {
		return &MailError{Op: "mail", Err: err}
	}
	if err := c.Rcpt(to); err != nil {
		return &MailError{Op: "rcpt", Err: err}
	}
	w, err := c.Data()
	if err != nil {
		return &MailError{Op: "data", Err: err}
	}
	if _, err := w.Write(buildMessage(s.from, to, subject, body, time.Now())); err != nil {
		return &MailError{Op: "data", Err: err}
	}
	if err := w.Close(); err != nil {
		return &MailError{Op: "data", Err: err}
	}

	if err := c.Quit(); err != nil {
		// письмо уже принято сервером
		logger.Log.Warn("smtp quit error", zap.Error(err))
	}
	return nil
}

func buildMessage(from, to, subject, body string, date time.Time) []byte {
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }

	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", date.Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/plain; charset="utf-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	body = strings.ReplaceAll(body, "\r\n", "\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return b.Bytes()
}
