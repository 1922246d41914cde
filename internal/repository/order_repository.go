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

const orderColumns = `
	id, user_id, buyer_name, buyer_email,
	ship_street_address, ship_city, ship_state, ship_postal_code, ship_country, ship_contact_phone,
	payment_method, payment_id, payment_status, payment_reference, payment_amount, payment_currency,
	total_price, order_status, is_paid, paid_at, is_delivered, delivered_at,
	courier, tracking_number, estimated_delivery, created_at, updated_at
`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (
			id, user_id, buyer_name, buyer_email,
			ship_street_address, ship_city, ship_state, ship_postal_code, ship_country, ship_contact_phone,
			payment_method, total_price, order_status, is_paid, is_delivered, courier,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	addr := order.ShippingAddress
	_, err := tx.Exec(ctx, query,
		order.ID, order.UserID, order.Buyer.Name, order.Buyer.Email,
		addr.StreetAddress, addr.City, addr.State, addr.PostalCode, addr.Country, addr.ContactPhone,
		string(order.PaymentMethod), order.TotalPrice, string(order.Status), order.IsPaid, order.IsDelivered,
		order.Delivery.Courier, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, name, quantity, price, image, position)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Name, item.Quantity, item.Price, item.Image, i)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// ListAll retrieves every order, newest first.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, query)
}

// ListForUser retrieves orders placed by the user or under the user's email, newest first.
func (r *orderRepository) ListForUser(ctx context.Context, userID uuid.UUID, email string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1 OR LOWER(buyer_email) = LOWER($2)
		ORDER BY created_at DESC`
	return r.list(ctx, query, userID, email)
}

// ListByBuyerEmail retrieves orders whose buyer email matches case-insensitively, newest first.
func (r *orderRepository) ListByBuyerEmail(ctx context.Context, email string) ([]model.Order, error) {
	query := `SELECT ` + orderColumns + `
		FROM orders
		WHERE LOWER(buyer_email) = LOWER($1)
		ORDER BY created_at DESC`
	return r.list(ctx, query, email)
}

// MarkPaid flips an unpaid order to paid. The is_paid guard in the WHERE
// clause makes concurrent confirmations race on a single row update, so at
// most one caller ever observes true.
func (r *orderRepository) MarkPaid(ctx context.Context, id uuid.UUID, result model.PaymentResult, paidAt time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET is_paid = TRUE,
			paid_at = $2,
			payment_id = $3,
			payment_status = $4,
			payment_reference = $5,
			payment_amount = $6,
			payment_currency = $7,
			updated_at = $2
		WHERE id = $1 AND is_paid = FALSE
	`

	tag, err := r.pool.Exec(ctx, query, id, paidAt,
		result.ID, result.Status, result.Reference, result.Amount, result.Currency)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to mark order paid")
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	won := tag.RowsAffected() == 1
	r.logger.Debug().
		Str("order_id", id.String()).
		Bool("transitioned", won).
		Msg("mark paid executed")

	return won, nil
}

// UpdateStatus applies an admin status change. is_paid only ever moves
// from false to true here.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, update model.StatusUpdate) (*model.Order, error) {
	query := `
		UPDATE orders
		SET order_status = $2,
			is_paid = is_paid OR $3,
			is_delivered = $4,
			delivered_at = $5,
			courier = COALESCE($6, courier),
			tracking_number = COALESCE($7, tracking_number),
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, string(update.Status), update.IsPaid,
		update.IsDelivered, update.DeliveredAt, update.Courier, update.TrackingNumber)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to update order status")
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("order_id", id.String()).Msg("order not found for status update")
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// Delete removes an order; items go with it through the cascade.
func (r *orderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to delete order")
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

func (r *orderRepository) list(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// attachItems loads the items of every order in one query.
func (r *orderRepository) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []model.OrderItem{}
	}

	query := `
		SELECT id, order_id, product_id, name, quantity, price, image
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("orders", len(orders)).Msg("failed to query order items")
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price, &item.Image)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return fmt.Errorf("error iterating order items: %w", err)
	}

	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o             model.Order
		paymentMethod string
		status        string
		paymentID     *string
		paymentStatus *string
		paymentRef    *string
		paymentAmount *int64
		paymentCurr   *string
	)

	err := row.Scan(
		&o.ID, &o.UserID, &o.Buyer.Name, &o.Buyer.Email,
		&o.ShippingAddress.StreetAddress, &o.ShippingAddress.City, &o.ShippingAddress.State,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country, &o.ShippingAddress.ContactPhone,
		&paymentMethod, &paymentID, &paymentStatus, &paymentRef, &paymentAmount, &paymentCurr,
		&o.TotalPrice, &status, &o.IsPaid, &o.PaidAt, &o.IsDelivered, &o.DeliveredAt,
		&o.Delivery.Courier, &o.Delivery.TrackingNumber, &o.Delivery.EstimatedDelivery,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.PaymentMethod = model.PaymentMethod(paymentMethod)
	o.Status = model.OrderStatus(status)
	if paymentID != nil {
		o.PaymentResult = &model.PaymentResult{
			ID:        *paymentID,
			Status:    deref(paymentStatus),
			Reference: deref(paymentRef),
			Currency:  deref(paymentCurr),
		}
		if paymentAmount != nil {
			o.PaymentResult.Amount = *paymentAmount
		}
	}

	return &o, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
