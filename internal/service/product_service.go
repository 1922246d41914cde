package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	flashSaleRatio    = 0.8
	flashSaleDuration = 21 * 24 * time.Hour
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
	now         func() time.Time
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
		now:         time.Now,
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductMissing
	}

	return product, nil
}

// Create adds a product. A flash sale product is discounted to 80% of its
// price for 21 days from creation.
func (s *productService) Create(ctx context.Context, owner auth.Identity, req *model.ProductRequest) (*model.Product, error) {
	now := s.now().UTC()

	product := &model.Product{
		ID:           uuid.New(),
		UserID:       owner.UserID,
		Name:         strings.TrimSpace(req.Name),
		Image:        strings.TrimSpace(req.Image),
		Description:  strings.TrimSpace(req.Description),
		Price:        req.Price,
		CountInStock: *req.CountInStock,
		FlashSale:    req.FlashSale,
		Category:     strings.TrimSpace(req.Category),
		Brand:        strings.TrimSpace(req.Brand),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if product.Image == "" {
		product.Image = model.DefaultProductImage
	}

	if product.FlashSale {
		expires := now.Add(flashSaleDuration)
		product.DiscountPrice = math.Round(product.Price*flashSaleRatio*100) / 100
		product.DiscountExpires = &expires
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error().Err(err).Str("name", product.Name).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info().
		Str("product_id", product.ID.String()).
		Str("user_id", owner.UserID.String()).
		Bool("flash_sale", product.FlashSale).
		Msg("product created")

	return product, nil
}
