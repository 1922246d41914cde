package repository

import (
	"context"
	"fmt"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type subscriberRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewSubscriberRepository creates a new PostgreSQL-backed subscriber repository.
func NewSubscriberRepository(pool *pgxpool.Pool, logger zerolog.Logger) SubscriberRepository {
	return &subscriberRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "subscriber").Logger(),
	}
}

func (r *subscriberRepository) Create(ctx context.Context, s *model.Subscriber) error {
	query := `
		INSERT INTO subscribers (id, email, wants_product_updates, subscribed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query, s.ID, s.Email, s.WantsProductUpdates, s.SubscribedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrAlreadySubscribed
		}
		r.logger.Error().Err(err).Str("email", s.Email).Msg("failed to create subscriber")
		return fmt.Errorf("failed to create subscriber: %w", err)
	}

	return nil
}

func (r *subscriberRepository) ListOptedIn(ctx context.Context) ([]model.Subscriber, error) {
	query := `
		SELECT id, email, wants_product_updates, subscribed_at
		FROM subscribers
		WHERE wants_product_updates = TRUE
		ORDER BY subscribed_at
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query subscribers")
		return nil, fmt.Errorf("failed to query subscribers: %w", err)
	}
	defer rows.Close()

	var subscribers []model.Subscriber
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Email, &s.WantsProductUpdates, &s.SubscribedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subscribers = append(subscribers, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return subscribers, nil
}
