package handler

import (
	"errors"
	"io"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// maxWebhookBody caps gateway event payloads.
const maxWebhookBody = 1 << 20

// PaymentHandler handles payment confirmation from the buyer redirect and
// from gateway webhooks.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler creates a new payment handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("handler", "payment").Logger(),
	}
}

// Verify handles GET /api/orders/paystack/verify/{reference}.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.VerifyRedirect(r.Context(), chi.URLParam(r, "reference"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Payment successful",
		"order":   order,
	})
}

// Webhook handles POST /api/orders/paystack/webhook. The signature covers
// the exact bytes received, so the body is read raw.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, r, model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "Could not read request body"), h.logger)
		return
	}

	err = h.service.HandleWebhook(r.Context(), body, r.Header.Get(payment.SignatureHeader))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, model.ErrInvalidSignature):
		h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("rejected webhook with invalid signature")
		writeError(w, r, err, h.logger)
	default:
		writeError(w, r, err, h.logger)
	}
}
