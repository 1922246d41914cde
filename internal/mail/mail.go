// Package mail delivers transactional and campaign email.
package mail

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Message is a single outbound email.
type Message struct {
	To      []string
	Bcc     []string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if len(m.To) == 0 && len(m.Bcc) == 0 {
		return errors.New("mail: no recipients")
	}
	if m.Subject == "" {
		return errors.New("mail: subject is empty")
	}
	if m.HTML == "" && m.Text == "" {
		return errors.New("mail: body is empty")
	}
	return nil
}

// logSender writes messages to the log instead of delivering them. It is
// used when mail is disabled so that flows depending on email still run.
type logSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a Sender that only logs.
func NewLogSender(logger zerolog.Logger) Sender {
	return &logSender{logger: logger.With().Str("component", "mail").Logger()}
}

func (s *logSender) Send(_ context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info().
		Str("to", strings.Join(msg.To, ",")).
		Int("bcc", len(msg.Bcc)).
		Str("subject", msg.Subject).
		Msg("mail delivery disabled, message logged")
	return nil
}
