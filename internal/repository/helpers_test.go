package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer, applies the migrations and
// returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	logger := zerolog.Nop()
	require.NoError(t, database.Migrate(connStr, logger))

	pool, err := database.Connect(ctx, connStr, database.DefaultPoolSettings(), logger)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedUser inserts a verified user and returns it.
func seedUser(t *testing.T, pool *pgxpool.Pool, email string, role model.Role) model.User {
	t.Helper()

	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.New(),
		Name:         "Ada Obi",
		Email:        email,
		PhoneNumber:  "+234" + uuid.NewString()[:10],
		PasswordHash: "hash",
		Role:         role,
		Avatar:       model.DefaultAvatar,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, NewUserRepository(pool, zerolog.Nop()).Create(context.Background(), &u))
	return u
}

// seedProducts inserts products owned by a freshly seeded admin.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	t.Helper()

	owner := seedUser(t, pool, "owner-"+uuid.NewString()+"@example.com", model.RoleAdmin)
	repo := NewProductRepository(pool, zerolog.Nop())
	for i := range products {
		products[i].UserID = owner.ID
		if products[i].Image == "" {
			products[i].Image = model.DefaultProductImage
		}
		if products[i].Description == "" {
			products[i].Description = "A test product description"
		}
		if products[i].Category == "" {
			products[i].Category = "General"
		}
		if products[i].Brand == "" {
			products[i].Brand = "Unknown"
		}
		if products[i].CreatedAt.IsZero() {
			products[i].CreatedAt = time.Now().UTC()
		}
		products[i].UpdatedAt = products[i].CreatedAt
		require.NoError(t, repo.Create(context.Background(), &products[i]))
	}
}

// seedOrder commits an unpaid order with the given items.
func seedOrder(t *testing.T, repo OrderRepository, userID *uuid.UUID, email string, total float64, createdAt time.Time, items ...model.OrderItem) *model.Order {
	t.Helper()
	ctx := context.Background()

	order := &model.Order{
		ID:     uuid.New(),
		UserID: userID,
		Buyer:  model.Buyer{Name: "Ada Obi", Email: email},
		ShippingAddress: model.ShippingAddress{
			StreetAddress: "1 Marina Road",
			City:          "Lagos",
			State:         "Lagos",
			PostalCode:    "100001",
			Country:       "Nigeria",
			ContactPhone:  "+2348000000000",
		},
		PaymentMethod: model.PaymentMethodPaystack,
		TotalPrice:    total,
		Status:        model.StatusProcessing,
		Delivery:      model.DeliveryDetails{Courier: model.DefaultCourier},
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
	for i := range items {
		items[i].ID = uuid.New()
		items[i].OrderID = order.ID
	}
	order.Items = items

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.CreateOrder(ctx, tx, order))
	require.NoError(t, repo.CreateOrderItems(ctx, tx, items))
	require.NoError(t, tx.Commit(ctx))

	return order
}
