package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/mail"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// paymentService implements PaymentService.
type paymentService struct {
	orderRepo     repository.OrderRepository
	gateway       payment.Gateway
	notifier      *Notifier
	webhookSecret string
	metrics       *metrics.Metrics
	logger        zerolog.Logger
	now           func() time.Time
}

// NewPaymentService creates a new payment reconciliation service. The
// webhook secret is the gateway secret key. m may be nil.
func NewPaymentService(
	orderRepo repository.OrderRepository,
	gateway payment.Gateway,
	notifier *Notifier,
	webhookSecret string,
	m *metrics.Metrics,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orderRepo:     orderRepo,
		gateway:       gateway,
		notifier:      notifier,
		webhookSecret: webhookSecret,
		metrics:       m,
		logger:        logger.With().Str("service", "payment").Logger(),
		now:           time.Now,
	}
}

// VerifyRedirect asks the gateway about the reference and, on a settled
// charge, marks the order paid. A repeated call returns the paid order
// unchanged.
func (s *paymentService) VerifyRedirect(ctx context.Context, reference string) (*model.Order, error) {
	logger := s.logger.With().Str("channel", metrics.ChannelRedirect).Str("reference", reference).Logger()

	tx, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		logger.Error().Err(err).Msg("payment verification failed")
		s.metrics.ObservePayment(metrics.ChannelRedirect, metrics.OutcomeError)
		if errors.Is(err, payment.ErrUnavailable) {
			return nil, model.ErrGatewayUnavailable
		}
		return nil, model.ErrGatewayFailure
	}

	if tx.Status != payment.StatusSuccess {
		logger.Info().Str("status", tx.Status).Msg("gateway reports payment not successful")
		s.metrics.ObservePayment(metrics.ChannelRedirect, metrics.OutcomeNotSuccessful)
		return nil, model.ErrPaymentNotSucceeded
	}

	order, outcome, err := s.confirm(ctx, metrics.ChannelRedirect, reference, tx)
	s.metrics.ObservePayment(metrics.ChannelRedirect, outcome)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// HandleWebhook authenticates the raw body before anything else is read.
// After the signature passes, only a missing order or a storage failure is
// reported back; every other condition is acknowledged so the gateway stops
// retrying.
func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if !payment.VerifySignature(s.webhookSecret, body, signature) {
		s.logger.Warn().Str("channel", metrics.ChannelWebhook).Msg("invalid webhook signature")
		return model.ErrInvalidSignature
	}

	event, err := payment.ParseEvent(body)
	if err != nil {
		s.logger.Warn().Err(err).Str("channel", metrics.ChannelWebhook).Msg("undecodable webhook body acknowledged")
		s.metrics.ObservePayment(metrics.ChannelWebhook, metrics.OutcomeIgnored)
		return nil
	}

	if !event.IsChargeSuccess() {
		s.logger.Info().
			Str("channel", metrics.ChannelWebhook).
			Str("event", event.Event).
			Str("status", event.Data.Status).
			Msg("unhandled webhook event")
		s.metrics.ObservePayment(metrics.ChannelWebhook, metrics.OutcomeIgnored)
		return nil
	}

	_, outcome, err := s.confirm(ctx, metrics.ChannelWebhook, event.Data.Reference, event.Transaction())
	s.metrics.ObservePayment(metrics.ChannelWebhook, outcome)

	if errors.Is(err, model.ErrAmountMismatch) {
		return nil
	}
	return err
}

// confirm applies a settled charge to the order it references. The paid
// transition is a conditional update, so of any number of concurrent
// confirmations exactly one wins and only that one sends the email.
func (s *paymentService) confirm(ctx context.Context, channel, reference string, tx *payment.Transaction) (*model.Order, string, error) {
	logger := s.logger.With().Str("channel", channel).Str("reference", reference).Logger()

	orderID, err := uuid.Parse(reference)
	if err != nil {
		logger.Warn().Msg("reference is not an order id")
		return nil, metrics.OutcomeNotFound, model.ErrOrderNotFound
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to load order for confirmation")
		return nil, metrics.OutcomeError, fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		logger.Warn().Msg("no order for payment reference")
		return nil, metrics.OutcomeNotFound, model.ErrOrderNotFound
	}

	if order.IsPaid {
		logger.Info().Msg("order already paid, confirmation ignored")
		return order, metrics.OutcomeAlreadyPaid, nil
	}

	expected := payment.ToMinorUnits(order.TotalPrice)
	if tx.AmountMinor != expected {
		logger.Warn().
			Int64("expected_amount", expected).
			Int64("reported_amount", tx.AmountMinor).
			Str("order_id", order.ID.String()).
			Msg("payment amount mismatch, order left unpaid for manual investigation")
		return nil, metrics.OutcomeAmountMismatch, model.ErrAmountMismatch
	}

	result := model.PaymentResult{
		ID:        strconv.FormatInt(tx.ID, 10),
		Status:    tx.Status,
		Reference: reference,
		Amount:    tx.AmountMinor,
		Currency:  tx.Currency,
	}

	won, err := s.orderRepo.MarkPaid(ctx, order.ID, result, s.now().UTC())
	if err != nil {
		logger.Error().Err(err).Msg("failed to mark order paid")
		return nil, metrics.OutcomeError, fmt.Errorf("failed to mark order paid: %w", err)
	}

	paid, err := s.orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to reload paid order")
		return nil, metrics.OutcomeError, fmt.Errorf("failed to load order: %w", err)
	}
	if paid == nil {
		return nil, metrics.OutcomeNotFound, model.ErrOrderNotFound
	}

	if !won {
		logger.Info().Msg("order confirmed concurrently by another request")
		return paid, metrics.OutcomeAlreadyPaid, nil
	}

	logger.Info().
		Str("order_id", paid.ID.String()).
		Int64("amount", tx.AmountMinor).
		Msg("order marked as paid")

	if err := s.notifier.send(ctx, emailOrderConfirmation, func(t *mail.Templates) (mail.Message, error) {
		return t.OrderConfirmation(paid)
	}); err != nil {
		logger.Error().Err(err).Str("order_id", paid.ID.String()).Msg("failed to send order confirmation email")
	}

	return paid, metrics.OutcomePaid, nil
}
