package repository

import (
	"context"
	"errors"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create inserts a new product.
	Create(ctx context.Context, product *model.Product) error

	// ValidateProductsExist checks if all provided product IDs exist in the database.
	// Returns error if any product ID does not exist.
	ValidateProductsExist(ctx context.Context, ids []uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// ListAll retrieves every order, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)

	// ListForUser retrieves orders placed by the user or under the user's email, newest first.
	ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]model.Order, error)

	// ListByBuyerEmail retrieves orders whose buyer email matches case-insensitively, newest first.
	ListByBuyerEmail(ctx context.Context, email string) ([]model.Order, error)

	// MarkPaid flips an unpaid order to paid in a single conditional update.
	// It reports false when the order was already paid or does not exist.
	MarkPaid(ctx context.Context, id uuid.UUID, result model.PaymentResult, paidAt time.Time) (bool, error)

	// UpdateStatus applies an admin status change and returns the updated order,
	// or nil when the order does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, update model.StatusUpdate) (*model.Order, error)

	// Delete removes an order and its items.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserRepository defines the interface for user account data access.
type UserRepository interface {
	// Create inserts a new user. Returns model.ErrUserExists on a duplicate email or phone.
	Create(ctx context.Context, user *model.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	// GetByVerificationToken retrieves the user owning an unexpired verification token.
	GetByVerificationToken(ctx context.Context, token string, now time.Time) (*model.User, error)

	// MarkVerified sets the verified flag and clears the verification token.
	MarkVerified(ctx context.Context, id uuid.UUID) error

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error

	// TouchLastLogin records a successful login.
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SubscriberRepository defines the interface for mailing-list data access.
type SubscriberRepository interface {
	// Create inserts a subscriber. Returns model.ErrAlreadySubscribed on a duplicate email.
	Create(ctx context.Context, subscriber *model.Subscriber) error

	// ListOptedIn retrieves every subscriber who wants product updates.
	ListOptedIn(ctx context.Context) ([]model.Subscriber, error)
}

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// isUniqueViolation reports whether err came from a unique constraint.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
