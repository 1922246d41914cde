package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckoutConfig holds the gateway session parameters used at checkout.
type CheckoutConfig struct {
	CallbackURL string
	Currency    string
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	gateway     payment.Gateway
	checkout    CheckoutConfig
	logger      zerolog.Logger

	now      func() time.Time
	tracking func() string
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	gateway payment.Gateway,
	checkout CheckoutConfig,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		gateway:     gateway,
		checkout:    checkout,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
		tracking:    newTrackingNumber,
	}
}

func newTrackingNumber() string {
	return fmt.Sprintf("TRK-%d", rand.IntN(1000000))
}

// CreateOrder persists an unpaid order and opens a payment session keyed by
// the order id. When the gateway call fails the order row stays unpaid.
func (s *orderService) CreateOrder(ctx context.Context, buyer *auth.Identity, req *model.OrderRequest) (*model.CheckoutResponse, error) {
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:              uuid.New(),
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   model.PaymentMethodPaystack,
		TotalPrice:      req.TotalPrice,
		Status:          model.StatusProcessing,
		Delivery:        model.DeliveryDetails{Courier: model.DefaultCourier},
	}

	switch {
	case buyer != nil:
		userID := buyer.UserID
		order.UserID = &userID
		order.Buyer = model.Buyer{Name: buyer.Name, Email: buyer.Email}
	case strings.TrimSpace(req.BuyerName) != "" && strings.TrimSpace(req.BuyerEmail) != "":
		order.Buyer = model.Buyer{Name: strings.TrimSpace(req.BuyerName), Email: strings.TrimSpace(req.BuyerEmail)}
	default:
		return nil, model.ErrBuyerRequired
	}

	productIDs := make([]uuid.UUID, len(req.Items))
	order.Items = make([]model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
		order.Items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Image:     item.Image,
		}
	}

	if err := s.productRepo.ValidateProductsExist(ctx, productIDs); err != nil {
		s.logger.Warn().
			Int("product_count", len(productIDs)).
			Err(err).
			Msg("product validation failed")
		return nil, err
	}

	// The client total is what gets charged; a drift from the item sum is
	// only reported.
	if itemsTotal := order.ItemsTotal(); payment.ToMinorUnits(itemsTotal) != payment.ToMinorUnits(req.TotalPrice) {
		s.logger.Warn().
			Str("order_id", order.ID.String()).
			Float64("client_total", req.TotalPrice).
			Float64("items_total", itemsTotal).
			Msg("client total differs from item sum")
	}

	now := s.now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.persist(ctx, order); err != nil {
		return nil, err
	}

	session, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Email:       order.Buyer.Email,
		AmountMinor: payment.ToMinorUnits(order.TotalPrice),
		Reference:   order.ID.String(),
		CallbackURL: s.checkout.CallbackURL,
		Currency:    s.checkout.Currency,
		Metadata:    map[string]string{"buyer_name": order.Buyer.Name},
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("payment initialization failed, order left unpaid")
		if errors.Is(err, payment.ErrUnavailable) {
			return nil, model.ErrGatewayUnavailable
		}
		return nil, model.ErrGatewayFailure
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(order.Items)).
		Float64("total", order.TotalPrice).
		Bool("guest", buyer == nil).
		Msg("order created and payment initialized")

	return &model.CheckoutResponse{
		OrderID:          order.ID,
		AuthorizationURL: session.AuthorizationURL,
		Reference:        session.Reference,
		Message:          "Payment initialized successfully",
	}, nil
}

// persist writes the order and its items in one transaction.
func (s *orderService) persist(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(order.Items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// ListAll retrieves every order, newest first.
func (s *orderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return nonNil(orders), nil
}

// ListMine retrieves the caller's orders, including guest orders placed
// under the same email.
func (s *orderService) ListMine(ctx context.Context, caller auth.Identity) ([]model.Order, error) {
	orders, err := s.orderRepo.ListForUser(ctx, caller.UserID, caller.Email)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID.String()).Msg("failed to list user orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return nonNil(orders), nil
}

// ListGuest retrieves orders for a buyer email, failing when there are none.
func (s *orderService) ListGuest(ctx context.Context, email string) ([]model.Order, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, model.NewValidationError("Email is required to find guest orders")
	}

	orders, err := s.orderRepo.ListByBuyerEmail(ctx, email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list guest orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if len(orders) == 0 {
		return nil, model.ErrNoGuestOrders
	}
	return orders, nil
}

// UpdateStatus applies an admin fulfilment change. Every accepted status
// marks the order paid; Cancelled and unknown values are rejected. No guard
// exists on the current status, so backward moves are allowed.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus) (*model.Order, error) {
	update := model.StatusUpdate{Status: status, IsPaid: true}

	switch status {
	case model.StatusProcessing:
	case model.StatusShipped:
		courier := "In transit"
		tracking := s.tracking()
		update.Courier = &courier
		update.TrackingNumber = &tracking
	case model.StatusDelivered:
		deliveredAt := s.now().UTC()
		update.IsDelivered = true
		update.DeliveredAt = &deliveredAt
	default:
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("rejected status update")
		return nil, model.ErrInvalidStatus
	}

	order, err := s.orderRepo.UpdateStatus(ctx, id, update)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("status", string(status)).
		Msg("order status updated")

	return order, nil
}

// Delete removes an order from its owner's history once delivered.
func (s *orderService) Delete(ctx context.Context, caller auth.Identity, id uuid.UUID) error {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}

	if order.UserID == nil || *order.UserID != caller.UserID {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("user_id", caller.UserID.String()).
			Msg("delete attempted by non-owner")
		return model.ErrNotOrderOwner
	}

	if order.Status != model.StatusDelivered {
		return model.ErrOrderNotDelivered
	}

	if err := s.orderRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}

	s.logger.Info().Str("order_id", id.String()).Msg("order removed from history")
	return nil
}

var requiredShippingFields = []struct {
	name  string
	value func(model.ShippingAddress) string
}{
	{"streetAddress", func(a model.ShippingAddress) string { return a.StreetAddress }},
	{"city", func(a model.ShippingAddress) string { return a.City }},
	{"state", func(a model.ShippingAddress) string { return a.State }},
	{"postalCode", func(a model.ShippingAddress) string { return a.PostalCode }},
	{"country", func(a model.ShippingAddress) string { return a.Country }},
	{"contactPhone", func(a model.ShippingAddress) string { return a.ContactPhone }},
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.ErrNoOrderItems
	}

	for _, field := range requiredShippingFields {
		if strings.TrimSpace(field.value(req.ShippingAddress)) == "" {
			return model.NewValidationError("Shipping address field: %s is required.", field.name)
		}
	}

	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return model.NewValidationError("Order item %d: product is required", i)
		}

		if item.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}

		if item.Price < 0 || math.IsNaN(item.Price) {
			return model.NewValidationError("Order item %d: price must not be negative", i)
		}
	}

	if req.TotalPrice < 0 || math.IsNaN(req.TotalPrice) {
		return model.NewValidationError("Total price must not be negative")
	}

	return nil
}

func nonNil(orders []model.Order) []model.Order {
	if orders == nil {
		return []model.Order{}
	}
	return orders
}
