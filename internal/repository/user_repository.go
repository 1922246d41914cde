package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `
	id, name, email, phone_number, password_hash, role, avatar, is_verified,
	verification_token, verification_token_expires, last_login, created_at, updated_at
`

type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.pool.Exec(ctx, query,
		u.ID, u.Name, u.Email, u.PhoneNumber, u.PasswordHash, string(u.Role), u.Avatar, u.IsVerified,
		u.VerificationToken, u.VerificationTokenExpires, u.LastLogin, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Debug().Str("email", u.Email).Msg("user already exists")
			return model.ErrUserExists
		}
		r.logger.Error().Err(err).Str("email", u.Email).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string, now time.Time) (*model.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE verification_token = $1 AND verification_token_expires > $2`
	return r.getOne(ctx, query, token, now)
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE,
			verification_token = NULL,
			verification_token_expires = NULL,
			updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "mark user verified", query, id)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update password", query, id, passwordHash)
}

func (r *userRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_login = $2 WHERE id = $1`
	return r.exec(ctx, "update last login", query, id, at)
}

func (r *userRepository) exec(ctx context.Context, action, query string, args ...any) error {
	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		r.logger.Error().Err(err).Msg("failed to " + action)
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}

func (r *userRepository) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var (
		u    model.User
		role string
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&u.ID, &u.Name, &u.Email, &u.PhoneNumber, &u.PasswordHash, &role, &u.Avatar, &u.IsVerified,
		&u.VerificationToken, &u.VerificationTokenExpires, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	parsed, ok := model.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("user %s has unknown role %q", u.ID, role)
	}
	u.Role = parsed

	return &u, nil
}
