package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// PaymentMethod identifies the gateway used to pay for an order.
type PaymentMethod string

const (
	PaymentMethodPaystack PaymentMethod = "Paystack"
)

// Order represents a customer order. Its ID is also the payment gateway reference.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          *uuid.UUID      `json:"userId,omitempty"`
	Buyer           Buyer           `json:"buyer"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod"`
	PaymentResult   *PaymentResult  `json:"paymentResult,omitempty"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          OrderStatus     `json:"orderStatus"`
	IsPaid          bool            `json:"isPaid"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	IsDelivered     bool            `json:"isDelivered"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	Delivery        DeliveryDetails `json:"deliveryDetails"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Buyer is the contact identity attached to every order, guest or not.
type Buyer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderItem is a snapshot of a product at checkout time.
type OrderItem struct {
	ID        uuid.UUID `json:"-"`
	OrderID   uuid.UUID `json:"-"`
	ProductID uuid.UUID `json:"product"`
	Name      string    `json:"name"`
	Quantity  int       `json:"qty"`
	Price     float64   `json:"price"`
	Image     string    `json:"image"`
}

// ShippingAddress holds the postal destination and contact phone.
type ShippingAddress struct {
	StreetAddress string `json:"streetAddress"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
	ContactPhone  string `json:"contactPhone"`
}

// PaymentResult is what the gateway reported when the order was confirmed.
type PaymentResult struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// DeliveryDetails tracks courier assignment.
type DeliveryDetails struct {
	Courier           string     `json:"courier"`
	TrackingNumber    *string    `json:"trackingNumber"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

// DefaultCourier is the courier label of an order nobody has shipped yet.
const DefaultCourier = "Not Assigned"

// ItemsTotal sums price*qty over the order items.
func (o *Order) ItemsTotal() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// StatusUpdate is the set of columns an admin status change writes.
type StatusUpdate struct {
	Status         OrderStatus
	IsPaid         bool
	IsDelivered    bool
	DeliveredAt    *time.Time
	Courier        *string
	TrackingNumber *string
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Items           []OrderItemRequest `json:"orderItems"`
	ShippingAddress ShippingAddress    `json:"shippingAddress"`
	TotalPrice      float64            `json:"totalPrice"`
	BuyerName       string             `json:"buyerName,omitempty"`
	BuyerEmail      string             `json:"buyerEmail,omitempty"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID uuid.UUID `json:"product"`
	Name      string    `json:"name"`
	Quantity  int       `json:"qty"`
	Price     float64   `json:"price"`
	Image     string    `json:"image"`
}

// CheckoutResponse is returned once the gateway has issued a payment session.
type CheckoutResponse struct {
	OrderID          uuid.UUID `json:"orderId"`
	AuthorizationURL string    `json:"authorization_url"`
	Reference        string    `json:"reference"`
	Message          string    `json:"message"`
}

// StatusUpdateRequest is the admin payload for PUT /api/orders/{id}/status.
type StatusUpdateRequest struct {
	Status OrderStatus `json:"status" validate:"required"`
}
