package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"storefront/internal/model"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

var phonePattern = regexp.MustCompile(`^\+?\d{10,15}$`)

var errInvalidJSON = model.NewDomainError(model.KindValidation, model.ErrCodeInvalidJSON, "Invalid request body")

// NewValidator returns a validator that reports json field names and knows
// the "phone" tag.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// statusFor maps a domain error kind onto an HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation, model.KindBusinessRule:
		return http.StatusBadRequest
	case model.KindUnauthenticated:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	case model.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a response. Domain errors carry their own code
// and message; anything else is logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	reqID := chimw.GetReqID(r.Context())

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status := statusFor(domainErr.Kind)
		event := logger.Debug()
		if status >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.
			Str("code", domainErr.Code).
			Int("status", status).
			Str("request_id", reqID).
			Msg(domainErr.Message)

		writeJSON(w, status, model.ErrorResponse{
			Error:         domainErr.Code,
			Message:       domainErr.Message,
			CorrelationID: reqID,
		})
		return
	}

	logger.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", reqID).
		Msg("handler error")

	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:         model.ErrCodeInternalError,
		Message:       "Internal server error",
		CorrelationID: reqID,
	})
}

// decodeJSON decodes and validates a request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errInvalidJSON
	}
	if v == nil {
		return nil
	}
	if err := v.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError turns the first failed rule into a readable message.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errInvalidJSON
	}

	fe := verrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "email":
		msg = fmt.Sprintf("%s must be a valid email address", field)
	case "phone":
		msg = fmt.Sprintf("%s must be 10 to 15 digits, optionally prefixed with +", field)
	case "min":
		msg = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "url":
		msg = fmt.Sprintf("%s must be a valid URL", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}

	code := model.ErrCodeInvalidField
	if fe.Tag() == "required" {
		code = model.ErrCodeMissingField
	}
	return model.NewDomainError(model.KindValidation, code, msg)
}

// parseID reads a uuid path value.
func parseID(raw, what string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewDomainError(model.KindValidation, model.ErrCodeInvalidField, fmt.Sprintf("invalid %s ID format", what))
	}
	return id, nil
}

// HealthHandler answers liveness probes.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
