package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/mail"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// userService implements UserService.
type userService struct {
	userRepo        repository.UserRepository
	tokens          *auth.TokenManager
	notifier        *Notifier
	verificationTTL time.Duration
	resetTTL        time.Duration
	logger          zerolog.Logger
	now             func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	notifier *Notifier,
	verificationTTL, resetTTL time.Duration,
	logger zerolog.Logger,
) UserService {
	return &userService{
		userRepo:        userRepo,
		tokens:          tokens,
		notifier:        notifier,
		verificationTTL: verificationTTL,
		resetTTL:        resetTTL,
		logger:          logger.With().Str("service", "user").Logger(),
		now:             time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an unverified account. A failed verification email is
// logged and does not undo the registration.
func (s *userService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	token, err := auth.NewVerificationToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expires := now.Add(s.verificationTTL)

	user := &model.User{
		ID:                       uuid.New(),
		Name:                     strings.TrimSpace(req.Name),
		Email:                    normalizeEmail(req.Email),
		PhoneNumber:              strings.TrimSpace(req.PhoneNumber),
		PasswordHash:             hash,
		Role:                     model.RoleUser,
		Avatar:                   model.DefaultAvatar,
		VerificationToken:        &token,
		VerificationTokenExpires: &expires,
		CreatedAt:                now,
		UpdatedAt:                now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user registered")

	if err := s.notifier.send(ctx, emailVerification, func(t *mail.Templates) (mail.Message, error) {
		return t.Verification(user, token, s.verificationTTL)
	}); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to send verification email")
	}

	return user, nil
}

// VerifyEmail activates the account owning an unexpired token.
func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return model.ErrInvalidToken
	}

	user, err := s.userRepo.GetByVerificationToken(ctx, token, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}
	if user == nil {
		return model.ErrInvalidToken
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to verify email: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("email verified")
	return nil
}

// Login checks credentials. Unverified accounts are refused after the
// password has been checked so the response does not reveal account state
// to someone without the password.
func (s *userService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, model.ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, model.ErrEmailNotVerified
	}

	token, err := s.tokens.IssueAccess(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to record last login")
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("user logged in")

	return &model.LoginResponse{
		Success: true,
		Message: "Login successful",
		User: model.UserSummary{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  user.Role,
		},
		Token: token,
	}, nil
}

// ForgotPassword emails a reset link. The email is the whole operation, so
// a delivery failure is returned.
func (s *userService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return model.ErrUserNotFound
	}

	token, err := s.tokens.IssueReset(user.ID)
	if err != nil {
		return err
	}

	if err := s.notifier.send(ctx, emailPasswordReset, func(t *mail.Templates) (mail.Message, error) {
		return t.PasswordReset(user, token, s.resetTTL)
	}); err != nil {
		return model.ErrMailFailure
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset link sent")
	return nil
}

// ResetPassword replaces the password of the reset token's subject.
func (s *userService) ResetPassword(ctx context.Context, token, password string) error {
	userID, err := s.tokens.ParseReset(token)
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected reset token")
		return model.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}
	if user == nil {
		return model.ErrInvalidToken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset")
	return nil
}

// Authenticate resolves an access token. The role comes from the stored
// account, not the token, so a demotion takes effect immediately.
func (s *userService) Authenticate(ctx context.Context, token string) (auth.Identity, error) {
	userID, _, err := s.tokens.ParseAccess(token)
	if err != nil {
		return auth.Identity{}, model.ErrBadToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return auth.Identity{}, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return auth.Identity{}, model.ErrBadToken
	}

	return auth.IdentityFromUser(user), nil
}
