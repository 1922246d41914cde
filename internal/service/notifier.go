package service

import (
	"context"
	"fmt"

	"storefront/internal/mail"
	"storefront/internal/metrics"

	"github.com/rs/zerolog"
)

// Email kinds used as log fields and metric labels.
const (
	emailOrderConfirmation = "order_confirmation"
	emailVerification      = "verification"
	emailPasswordReset     = "password_reset"
	emailCampaign          = "campaign"
)

// Notifier renders and delivers transactional email.
type Notifier struct {
	sender    mail.Sender
	templates *mail.Templates
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewNotifier creates a Notifier. m may be nil.
func NewNotifier(sender mail.Sender, templates *mail.Templates, m *metrics.Metrics, logger zerolog.Logger) *Notifier {
	return &Notifier{
		sender:    sender,
		templates: templates,
		metrics:   m,
		logger:    logger.With().Str("service", "notifier").Logger(),
	}
}

// send builds and delivers one message. Callers decide whether a failure
// is fatal to their operation.
func (n *Notifier) send(ctx context.Context, kind string, build func(*mail.Templates) (mail.Message, error)) error {
	msg, err := build(n.templates)
	if err != nil {
		n.metrics.ObserveEmail(kind, err)
		return fmt.Errorf("failed to render %s email: %w", kind, err)
	}

	err = n.sender.Send(ctx, msg)
	n.metrics.ObserveEmail(kind, err)
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("kind", kind).
			Msg("failed to send email")
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	n.logger.Debug().
		Str("kind", kind).
		Int("recipients", len(msg.To)+len(msg.Bcc)).
		Msg("email sent")
	return nil
}
