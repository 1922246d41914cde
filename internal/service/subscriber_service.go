package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type subscriberService struct {
	subscriberRepo repository.SubscriberRepository
	notifier       *Notifier
	logger         zerolog.Logger
	now            func() time.Time
}

// NewSubscriberService creates a new subscriber service.
func NewSubscriberService(subscriberRepo repository.SubscriberRepository, notifier *Notifier, logger zerolog.Logger) SubscriberService {
	return &subscriberService{
		subscriberRepo: subscriberRepo,
		notifier:       notifier,
		logger:         logger.With().Str("service", "subscriber").Logger(),
		now:            time.Now,
	}
}

func (s *subscriberService) Subscribe(ctx context.Context, email string) (*model.Subscriber, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, model.NewValidationError("Email is required for subscription.")
	}

	subscriber := &model.Subscriber{
		ID:                  uuid.New(),
		Email:               email,
		WantsProductUpdates: true,
		SubscribedAt:        s.now().UTC(),
	}

	if err := s.subscriberRepo.Create(ctx, subscriber); err != nil {
		return nil, err
	}

	s.logger.Info().Str("subscriber_id", subscriber.ID.String()).Msg("subscriber added")
	return subscriber, nil
}

// SendUpdate sends one campaign message with every opted-in address in Bcc.
func (s *subscriberService) SendUpdate(ctx context.Context, req *model.CampaignRequest) (int, error) {
	subscribers, err := s.subscriberRepo.ListOptedIn(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		return 0, model.ErrNoSubscribers
	}

	recipients := make([]string, len(subscribers))
	for i, sub := range subscribers {
		recipients[i] = sub.Email
	}

	if err := s.notifier.send(ctx, emailCampaign, func(t *mail.Templates) (mail.Message, error) {
		return t.Campaign(req.Subject, req.Body, req.ImageURL, recipients)
	}); err != nil {
		s.logger.Error().Err(err).Int("recipients", len(recipients)).Msg("campaign delivery failed")
		return 0, model.ErrMailFailure
	}

	s.logger.Info().
		Int("recipients", len(recipients)).
		Str("subject", req.Subject).
		Msg("campaign sent")

	return len(recipients), nil
}
