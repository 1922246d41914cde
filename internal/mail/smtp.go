package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/rs/zerolog"
)

type smtpSender struct {
	cfg    config.MailConfig
	logger zerolog.Logger
}

// NewSMTPSender creates a Sender that delivers through an SMTP relay. Port 465
// uses implicit TLS; other ports rely on STARTTLS when the server offers it.
func NewSMTPSender(cfg config.MailConfig, logger zerolog.Logger) Sender {
	return &smtpSender{
		cfg:    cfg,
		logger: logger.With().Str("component", "smtp").Logger(),
	}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}

	raw, err := s.buildRaw(msg)
	if err != nil {
		return err
	}

	recipients := append(append([]string{}, msg.To...), msg.Bcc...)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	s.logger.Info().
		Str("subject", msg.Subject).
		Int("recipients", len(recipients)).
		Msg("sending email")

	if err := s.deliver(ctx, addr, recipients, raw); err != nil {
		s.logger.Error().Err(err).Str("subject", msg.Subject).Msg("error sending email")
		return fmt.Errorf("failed to send mail: %w", err)
	}

	return nil
}

func (s *smtpSender) deliver(ctx context.Context, addr string, to []string, raw []byte) error {
	dialer := &net.Dialer{Timeout: 10 * time.Second}

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if s.cfg.Port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// buildRaw renders headers and a multipart/alternative body. Bcc never
// appears in the headers.
func (s *smtpSender) buildRaw(msg Message) ([]byte, error) {
	var b strings.Builder

	from := s.cfg.From
	if s.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.cfg.FromName, s.cfg.From)
	}
	to := msg.To
	if len(to) == 0 {
		to = []string{s.cfg.From}
	}

	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	if s.cfg.ReplyTo != "" {
		b.WriteString("Reply-To: " + s.cfg.ReplyTo + "\r\n")
	}
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")

	mw := multipart.NewWriter(&b)
	b.WriteString("Content-Type: multipart/alternative; boundary=\"" + mw.Boundary() + "\"\r\n\r\n")

	parts := []struct{ contentType, body string }{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		if p.body == "" {
			continue
		}
		header := textproto.MIMEHeader{}
		header.Set("Content-Type", p.contentType+"; charset=\"UTF-8\"")
		pw, err := mw.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to build mail part: %w", err)
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("failed to build mail part: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build mail body: %w", err)
	}

	return []byte(b.String()), nil
}
