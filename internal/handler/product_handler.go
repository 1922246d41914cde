package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, validate *validator.Validate, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

// GetAll handles GET /api/products requests with pagination.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryInt(w, r, "limit", 10)
	if !ok {
		return
	}
	offset, ok := h.queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	products, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	// A malformed id cannot name a stored product.
	productID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, model.ErrProductMissing, h.logger)
		return
	}

	product, err := h.service.GetByID(r.Context(), productID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products. Admin only.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, r, model.ErrMissingToken, h.logger)
		return
	}

	var req model.ProductRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), owner, &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) queryInt(w http.ResponseWriter, r *http.Request, key string, def int) (int, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, model.NewDomainError(model.KindValidation, model.ErrCodeInvalidField, "invalid "+key+" parameter"), h.logger)
		return 0, false
	}
	return v, true
}
