package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Message is a plain-text mail. Bcc recipients receive the mail but are
// never written into the headers.
type Message struct {
	To      []string
	Bcc     []string
	Subject string
	Body    string
}

// Recipients returns every envelope recipient, deduplicated.
func (m Message) Recipients() []string {
	seen := make(map[string]struct{}, len(m.To)+len(m.Bcc))
	out := make([]string, 0, len(m.To)+len(m.Bcc))
	for _, addr := range append(append([]string{}, m.To...), m.Bcc...) {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(addr)]; dup {
			continue
		}
		seen[strings.ToLower(addr)] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	// UseTLS dials with implicit TLS. Without it STARTTLS is used when the
	// server offers it.
	UseTLS bool
}

// SMTPSender sends mail over SMTP using net/smtp
type SMTPSender struct {
	config SMTPConfig
	logger zerolog.Logger
	now    func() time.Time
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(config SMTPConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// ErrNoRecipients is returned when a message has no envelope recipient
var ErrNoRecipients = errors.New("email has no recipients")

// Send delivers msg. When no SMTP host is configured the message is logged
// and dropped so development setups work without a mail server.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	recipients := msg.Recipients()
	if len(recipients) == 0 {
		return ErrNoRecipients
	}

	if s.config.Host == "" {
		s.logger.Warn().
			Str("subject", msg.Subject).
			Int("recipients", len(recipients)).
			Msg("SMTP host not configured - email not sent")
		return nil
	}

	address := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	conn, err := s.dial(ctx, address)
	if err != nil {
		s.logger.Error().Err(err).Str("server", address).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if !s.config.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.config.Host}); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to set recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write(s.buildMessage(msg)); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{}
	if s.config.UseTLS {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: s.config.Host},
		}
		return tlsDialer.DialContext(ctx, "tcp", address)
	}
	return dialer.DialContext(ctx, "tcp", address)
}

// buildMessage renders headers and body with CRLF line endings
func (s *SMTPSender) buildMessage(msg Message) []byte {
	from := s.config.FromEmail
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", s.config.FromName), s.config.FromEmail)
	}

	to := "undisclosed-recipients:;"
	if len(msg.To) > 0 {
		to = strings.Join(msg.To, ", ")
	}

	headers := map[string]string{
		"From":                      from,
		"To":                        to,
		"Subject":                   mime.QEncoding.Encode("utf-8", msg.Subject),
		"Date":                      s.now().Format(time.RFC1123Z),
		"MIME-Version":              "1.0",
		"Content-Type":              "text/plain; charset=UTF-8",
		"Content-Transfer-Encoding": "8bit",
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))
	return []byte(b.String())
}
