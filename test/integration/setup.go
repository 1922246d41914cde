package integration

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/database"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, applies the embedded
// migrations and opens a connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	logger := zerolog.Nop()
	if err := database.Migrate(connStr, logger); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	pool, err := database.Connect(ctx, connStr, database.DefaultPoolSettings(), logger)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

var phoneSeq atomic.Int64

// SeedUser inserts a verified account with the given password.
func SeedUser(t *testing.T, pool *pgxpool.Pool, email, password string, role model.Role) model.User {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	u := model.User{
		ID:           uuid.New(),
		Name:         "Seeded " + string(role),
		Email:        email,
		PhoneNumber:  fmt.Sprintf("+23480%08d", phoneSeq.Add(1)),
		PasswordHash: hash,
		Role:         role,
		Avatar:       model.DefaultAvatar,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repository.NewUserRepository(pool, zerolog.Nop()).Create(context.Background(), &u); err != nil {
		t.Fatalf("failed to seed user %s: %v", email, err)
	}
	return u
}

// SeedProducts inserts test product data owned by owner.
func SeedProducts(t *testing.T, pool *pgxpool.Pool, owner uuid.UUID) []model.Product {
	t.Helper()

	ctx := context.Background()
	repo := repository.NewProductRepository(pool, zerolog.Nop())

	products := []model.Product{
		{Name: "Leather tote", Price: 2500.00, CountInStock: 5, Category: "Bags"},
		{Name: "Silk scarf", Price: 1200.50, CountInStock: 10, Category: "Accessories"},
		{Name: "Suede loafers", Price: 18000.00, CountInStock: 2, Category: "Shoes"},
	}

	base := time.Now().UTC().Add(-time.Hour)
	for i := range products {
		p := &products[i]
		p.ID = uuid.New()
		p.UserID = owner
		p.Image = model.DefaultProductImage
		p.Description = "Seeded product for integration tests"
		p.Brand = "Pindows"
		p.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		p.UpdatedAt = p.CreatedAt
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("failed to seed product %s: %v", p.Name, err)
		}
	}

	return products
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"order_items", "orders", "products", "subscribers", "users"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
