package services

import (
	"bufio"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTP — минимальный SMTP-сервер. STARTTLS и AUTH PLAIN объявляются,
// только если включены опциями.
type fakeSMTP struct {
	ln        net.Listener
	tls       *tls.Config
	clientTLS *tls.Config
	user      string
	password  string

	msgs chan string
	rcpt chan string
	auth chan authAttempt
}

type authAttempt struct {
	line   string
	secure bool
}

type fakeOption func(*fakeSMTP)

// withSTARTTLS берёт самоподписанный сертификат у httptest (SAN 127.0.0.1).
func withSTARTTLS(t *testing.T) fakeOption {
	return func(f *fakeSMTP) {
		ts := httptest.NewTLSServer(http.NotFoundHandler())
		t.Cleanup(ts.Close)
		roots := x509.NewCertPool()
		roots.AddCert(ts.Certificate())
		f.tls = &tls.Config{Certificates: ts.TLS.Certificates}
		f.clientTLS = &tls.Config{RootCAs: roots, ServerName: "127.0.0.1"}
	}
}

func withAuth(user, password string) fakeOption {
	return func(f *fakeSMTP) { f.user, f.password = user, password }
}

func startFakeSMTP(t *testing.T, opts ...fakeOption) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{
		ln:   ln,
		msgs: make(chan string, 1),
		rcpt: make(chan string, 1),
		auth: make(chan authAttempt, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) hostPort() (string, string) {
	host, port, _ := net.SplitHostPort(f.ln.Addr().String())
	return host, port
}

func (f *fakeSMTP) extensions(secure bool) []string {
	ext := []string{"fake"}
	if f.tls != nil && !secure {
		ext = append(ext, "STARTTLS")
	}
	if f.user != "" && (secure || f.tls == nil) {
		ext = append(ext, "AUTH PLAIN")
	}
	return ext
}

func (f *fakeSMTP) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	tp := textproto.NewConn(conn)
	secure := false
	_ = tp.PrintfLine("220 fake ESMTP")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(line)
		switch {
		case strings.HasPrefix(cmd, "EHLO"):
			ext := f.extensions(secure)
			for i, e := range ext {
				sep := "-"
				if i == len(ext)-1 {
					sep = " "
				}
				_ = tp.PrintfLine("250%s%s", sep, e)
			}
		case cmd == "STARTTLS" && f.tls != nil && !secure:
			_ = tp.PrintfLine("220 ready to start TLS")
			tlsConn := tls.Server(conn, f.tls)
			if err := tlsConn.Handshake(); err != nil {
				return
			}
			tp = textproto.NewConn(tlsConn)
			secure = true
		case strings.HasPrefix(cmd, "AUTH PLAIN") && f.user != "":
			f.auth <- authAttempt{line: line, secure: secure}
			fields := strings.Fields(line)
			raw, _ := base64.StdEncoding.DecodeString(fields[len(fields)-1])
			if string(raw) == "\x00"+f.user+"\x00"+f.password {
				_ = tp.PrintfLine("235 2.7.0 Authentication successful")
			} else {
				_ = tp.PrintfLine("535 5.7.8 Authentication credentials invalid")
			}
		case cmd == "*":
			_ = tp.PrintfLine("501 cancelled")
		case strings.HasPrefix(cmd, "MAIL FROM"):
			_ = tp.PrintfLine("250 OK")
		case strings.HasPrefix(cmd, "RCPT TO"):
			f.rcpt <- line
			_ = tp.PrintfLine("250 OK")
		case cmd == "DATA":
			_ = tp.PrintfLine("354 go ahead")
			data, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.msgs <- string(data)
			_ = tp.PrintfLine("250 queued")
		case cmd == "QUIT":
			_ = tp.PrintfLine("221 bye")
			return
		default:
			_ = tp.PrintfLine("502 not implemented")
		}
	}
}

func newTestEmailService(host, port string, requireTLS bool) *EmailService {
	return &EmailService{
		host:       host,
		port:       port,
		from:       "noreply@example.com",
		requireTLS: requireTLS,
		timeout:    5 * time.Second,
		codeTTL:    10 * time.Minute,
	}
}

func TestEmailService_SendResetCode(t *testing.T) {
	srv := startFakeSMTP(t)
	host, port := srv.hostPort()
	s := newTestEmailService(host, port, false)

	require.NoError(t, s.SendResetCode(context.Background(), "user@example.com", "042137"))

	assert.Contains(t, <-srv.rcpt, "<user@example.com>")
	msg := <-srv.msgs
	assert.Contains(t, msg, "Subject: Password recovery code")
	assert.Contains(t, msg, "To: user@example.com")
	assert.Contains(t, msg, "Your password recovery code: 042137")
	assert.Contains(t, msg, "valid for 10 minutes")
}

func TestEmailService_RequiresSTARTTLS(t *testing.T) {
	srv := startFakeSMTP(t)
	host, port := srv.hostPort()
	s := newTestEmailService(host, port, true)

	err := s.SendResetCode(context.Background(), "user@example.com", "123456")

	var mailErr *MailError
	require.True(t, errors.As(err, &mailErr))
	assert.Equal(t, "starttls", mailErr.Op)
}

func TestEmailService_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port, _ := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, ln.Close())

	s := newTestEmailService(host, port, false)
	err = s.SendResetCode(context.Background(), "user@example.com", "123456")

	var mailErr *MailError
	require.True(t, errors.As(err, &mailErr))
	assert.Equal(t, "dial", mailErr.Op)
}

func TestEmailService_STARTTLSThenAuth(t *testing.T) {
	srv := startFakeSMTP(t, withSTARTTLS(t), withAuth("mailer", "s3cret"))
	host, port := srv.hostPort()
	s := newTestEmailService(host, port, true)
	s.tlsConfig = srv.clientTLS
	s.user, s.password = "mailer", "s3cret"

	require.NoError(t, s.SendResetCode(context.Background(), "user@example.com", "042137"))

	attempt := <-srv.auth
	assert.True(t, attempt.secure, "AUTH должен идти уже поверх TLS")
	fields := strings.Fields(attempt.line)
	require.Len(t, fields, 3)
	raw, err := base64.StdEncoding.DecodeString(fields[2])
	require.NoError(t, err)
	assert.Equal(t, "\x00mailer\x00s3cret", string(raw))
	assert.Contains(t, <-srv.msgs, "Your password recovery code: 042137")
}

func TestEmailService_AuthRejected(t *testing.T) {
	srv := startFakeSMTP(t, withSTARTTLS(t), withAuth("mailer", "s3cret"))
	host, port := srv.hostPort()
	s := newTestEmailService(host, port, true)
	s.tlsConfig = srv.clientTLS
	s.user, s.password = "mailer", "wrong"

	err := s.SendResetCode(context.Background(), "user@example.com", "042137")

	var mailErr *MailError
	require.ErrorAs(t, err, &mailErr)
	assert.Equal(t, "auth", mailErr.Op)
	assert.True(t, (<-srv.auth).secure)
}

func TestEmailService_AuthNotOffered(t *testing.T) {
	srv := startFakeSMTP(t)
	host, port := srv.hostPort()
	s := newTestEmailService(host, port, false)
	s.user, s.password = "mailer", "s3cret"

	err := s.SendResetCode(context.Background(), "user@example.com", "042137")

	var mailErr *MailError
	require.ErrorAs(t, err, &mailErr)
	assert.Equal(t, "auth", mailErr.Op)
}

func TestEmailService_UntrustedCertificate(t *testing.T) {
	srv := startFakeSMTP(t, withSTARTTLS(t))
	host, port := srv.hostPort()
	s := newTestEmailService(host, port, true)
	s.tlsConfig = &tls.Config{ServerName: "127.0.0.1"}

	err := s.SendResetCode(context.Background(), "user@example.com", "042137")

	var mailErr *MailError
	require.ErrorAs(t, err, &mailErr)
	assert.Equal(t, "starttls", mailErr.Op)
}

type noDeadlineConn struct{ net.Conn }

func (noDeadlineConn) SetDeadline(time.Time) error { return errors.New("deadline not supported") }

func TestEmailService_DeadlineFailure(t *testing.T) {
	client, server := net.Pipe()
	t.Cleanup(func() { _ = server.Close() })
	s := newTestEmailService("127.0.0.1", "25", false)
	s.dial = func(context.Context, string, string) (net.Conn, error) { return noDeadlineConn{client}, nil }

	err := s.SendResetCode(context.Background(), "user@example.com", "042137")

	var mailErr *MailError
	require.ErrorAs(t, err, &mailErr)
	assert.Equal(t, "dial", mailErr.Op)
	assert.ErrorContains(t, err, "deadline not supported")
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := string(buildMessage("a@example.com", "b@example.com", "Password recovery code", "line1\nline2", date))

	assert.True(t, strings.HasPrefix(msg, "From: a@example.com\r\nTo: b@example.com\r\n"))
	assert.Contains(t, msg, "Date: Fri, 02 Jan 2026 03:04:05 +0000\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=\"utf-8\"\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline1\r\nline2"))

	// тело и заголовки должны читаться стандартным парсером
	r := textproto.NewReader(bufio.NewReader(strings.NewReader(msg)))
	h, err := r.ReadMIMEHeader()
	require.NoError(t, err)
	assert.Equal(t, "1.0", h.Get("Mime-Version"))
}
