package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// SubscriberHandler handles newsletter sign-ups and campaigns.
type SubscriberHandler struct {
	service  service.SubscriberService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewSubscriberHandler creates a new subscriber handler.
func NewSubscriberHandler(service service.SubscriberService, validate *validator.Validate, logger zerolog.Logger) *SubscriberHandler {
	return &SubscriberHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("handler", "subscriber").Logger(),
	}
}

// Subscribe handles POST /api/subscribers.
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req model.SubscribeRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.Email)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":    "Subscribed successfully",
		"subscriber": sub,
	})
}

// SendUpdate handles POST /api/subscribers/send-update. Admin only.
func (h *SubscriberHandler) SendUpdate(w http.ResponseWriter, r *http.Request) {
	var req model.CampaignRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	count, err := h.service.SendUpdate(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Product update email sent successfully",
		"sentCount": count,
	})
}
