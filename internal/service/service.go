package service

import (
	"context"
	"io"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/google/uuid"
)

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// GetAll retrieves products with pagination, newest first.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Create adds a product owned by the calling admin.
	Create(ctx context.Context, owner auth.Identity, req *model.ProductRequest) (*model.Product, error)
}

// OrderService defines checkout and order management operations.
type OrderService interface {
	// CreateOrder persists an unpaid order and opens a payment session for it.
	// buyer is nil for guest checkouts.
	CreateOrder(ctx context.Context, buyer *auth.Identity, req *model.OrderRequest) (*model.CheckoutResponse, error)

	// ListAll retrieves every order, newest first.
	ListAll(ctx context.Context) ([]model.Order, error)

	// ListMine retrieves orders placed by the caller or under the caller's email.
	ListMine(ctx context.Context, caller auth.Identity) ([]model.Order, error)

	// ListGuest retrieves orders for a buyer email.
	ListGuest(ctx context.Context, email string) ([]model.Order, error)

	// UpdateStatus applies an admin fulfilment change.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error)

	// Delete removes a delivered order from its owner's history.
	Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error
}

// PaymentService reconciles payment confirmations from both gateway channels.
type PaymentService interface {
	// VerifyRedirect confirms payment when the payer returns from the gateway.
	VerifyRedirect(ctx context.Context, reference string) (*model.Order, error)

	// HandleWebhook authenticates and applies a gateway push. A nil error
	// means the delivery should be acknowledged.
	HandleWebhook(ctx context.Context, body []byte, signature string) error
}

// UserService defines account lifecycle operations.
type UserService interface {
	// Register creates an unverified account and sends the verification email.
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)

	// VerifyEmail activates the account owning token.
	VerifyEmail(ctx context.Context, token string) error

	// Login checks credentials and issues an access token.
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)

	// ForgotPassword emails a password reset link.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword replaces the password of the reset token's subject.
	ResetPassword(ctx context.Context, token, password string) error

	// Authenticate resolves an access token into the caller's identity.
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

// SubscriberService defines mailing-list operations.
type SubscriberService interface {
	// Subscribe adds an email to the product-update list.
	Subscribe(ctx context.Context, email string) (*model.Subscriber, error)

	// SendUpdate mails a campaign to every opted-in subscriber and returns
	// how many addresses it was sent to.
	SendUpdate(ctx context.Context, req *model.CampaignRequest) (int, error)
}

// UploadService stores product images.
type UploadService interface {
	// Upload validates and stores an image, returning its public URL.
	Upload(ctx context.Context, filename, contentType string, body io.ReadSeeker, size int64) (string, error)
}
