package handler

import (
	"fmt"
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service  service.OrderService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, validate *validator.Validate, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// Create handles POST /api/orders. Callers may be signed in or guests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if err := decodeJSON(w, r, nil, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var buyer *auth.Identity
	if id, ok := auth.IdentityFrom(r.Context()); ok {
		buyer = &id
	}

	checkout, err := h.service.CreateOrder(r.Context(), buyer, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, checkout)
}

// ListAll handles GET /api/orders/admin.
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListMine handles GET /api/orders/myorders.
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, model.ErrMissingToken, h.logger)
		return
	}

	orders, err := h.service.ListMine(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// ListGuest handles GET /api/orders/guest/{email}.
func (h *OrderHandler) ListGuest(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListGuest(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseID(chi.URLParam(r, "id"), "order")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req model.StatusUpdateRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("Order updated to %s", order.Status),
		"order":   order,
	})
}

// Delete handles DELETE /api/orders/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := parseID(chi.URLParam(r, "id"), "order")
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	id, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, model.ErrMissingToken, h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), id, orderID); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Order successfully removed from user history.",
	})
}
