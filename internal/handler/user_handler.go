package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UserHandler handles account registration and sign-in.
type UserHandler struct {
	service  service.UserService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(service service.UserService, validate *validator.Validate, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		service:  service,
		validate: validate,
		logger:   logger.With().Str("handler", "user").Logger(),
	}
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register handles POST /api/users/register.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if _, err := h.service.Register(r.Context(), &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{
		Success: true,
		Message: "Registration successful! Please check your email to verify your account.",
	})
}

// VerifyEmail handles GET /api/users/verify/{token}.
func (h *UserHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.service.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Email verified successfully. You can now log in.",
	})
}

// Login handles POST /api/users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// ForgotPassword handles POST /api/users/forgot-password.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ForgotPasswordRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Password reset link sent to your email.",
	})
}

// ResetPassword handles POST /api/users/reset-password/{token}.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req model.ResetPasswordRequest
	if err := decodeJSON(w, r, h.validate, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Password has been reset successfully.",
	})
}
