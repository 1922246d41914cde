package model

import "fmt"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
	Stack         string `json:"stack,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidField        = "INVALID_FIELD"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInvalidStatus       = "INVALID_STATUS"
	ErrCodeOrderNotDelivered   = "ORDER_NOT_DELIVERED"
	ErrCodeAmountMismatch      = "AMOUNT_MISMATCH"
	ErrCodePaymentNotSucceeded = "PAYMENT_NOT_SUCCESSFUL"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeGatewayFailure      = "PAYMENT_GATEWAY_ERROR"
	ErrCodeGatewayUnavailable  = "PAYMENT_GATEWAY_UNAVAILABLE"
	ErrCodeMailFailure         = "MAIL_DELIVERY_FAILED"
	ErrCodeUserExists          = "USER_EXISTS"
	ErrCodeAlreadySubscribed   = "ALREADY_SUBSCRIBED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeEmailNotVerified    = "EMAIL_NOT_VERIFIED"
	ErrCodeInvalidToken        = "INVALID_TOKEN"
	ErrCodeNoSubscribers       = "NO_SUBSCRIBERS"
	ErrCodeNoOrders            = "NO_ORDERS"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// ErrorKind classifies a DomainError for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindConflict
	KindBusinessRule
	KindUpstream
	KindUnavailable
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error naming the offending input.
func NewValidationError(format string, args ...any) *DomainError {
	return NewDomainError(KindValidation, ErrCodeMissingField, fmt.Sprintf(format, args...))
}

// Common domain errors
var (
	ErrProductNotFound     = NewDomainError(KindValidation, ErrCodeProductNotFound, "One or more products not found")
	ErrInvalidQuantity     = NewDomainError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be at least one")
	ErrNoOrderItems        = NewDomainError(KindValidation, ErrCodeMissingField, "No order items")
	ErrBuyerRequired       = NewDomainError(KindValidation, ErrCodeMissingField, "Buyer information (name and email) is required")
	ErrOrderNotFound       = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "Order not found")
	ErrNoGuestOrders       = NewDomainError(KindNotFound, ErrCodeNoOrders, "No orders found for this email")
	ErrInvalidStatus       = NewDomainError(KindBusinessRule, ErrCodeInvalidStatus, "Invalid status update")
	ErrNotOrderOwner       = NewDomainError(KindForbidden, ErrCodeForbidden, "Not authorised to delete this order")
	ErrOrderNotDelivered   = NewDomainError(KindBusinessRule, ErrCodeOrderNotDelivered, "Only orders with Delivered status can be removed from history")
	ErrAmountMismatch      = NewDomainError(KindBusinessRule, ErrCodeAmountMismatch, "Reported payment amount does not match order total")
	ErrPaymentNotSucceeded = NewDomainError(KindBusinessRule, ErrCodePaymentNotSucceeded, "Payment was not successful")
	ErrInvalidSignature    = NewDomainError(KindUnauthenticated, ErrCodeInvalidSignature, "Invalid signature")
	ErrGatewayFailure      = NewDomainError(KindUpstream, ErrCodeGatewayFailure, "Could not reach the payment gateway")
	ErrGatewayUnavailable  = NewDomainError(KindUnavailable, ErrCodeGatewayUnavailable, "Payment gateway temporarily unavailable")
	ErrMailFailure         = NewDomainError(KindUpstream, ErrCodeMailFailure, "Failed to send email")

	ErrUserExists         = NewDomainError(KindConflict, ErrCodeUserExists, "User already exists")
	ErrUserNotFound       = NewDomainError(KindNotFound, ErrCodeUserNotFound, "No user found with that email")
	ErrInvalidCredentials = NewDomainError(KindUnauthenticated, ErrCodeInvalidCredentials, "Invalid email or password")
	ErrEmailNotVerified   = NewDomainError(KindForbidden, ErrCodeEmailNotVerified, "Please verify your email before logging in")
	ErrInvalidToken       = NewDomainError(KindValidation, ErrCodeInvalidToken, "Invalid or expired token")
	ErrMissingToken       = NewDomainError(KindUnauthenticated, ErrCodeUnauthorised, "Not authorized, no token provided")
	ErrBadToken           = NewDomainError(KindUnauthenticated, ErrCodeUnauthorised, "Not authorized, token invalid or expired")
	ErrRoleForbidden      = NewDomainError(KindForbidden, ErrCodeForbidden, "Access denied for this role")
	ErrPasswordTooLong    = NewDomainError(KindValidation, ErrCodeInvalidField, "password must be at most 72 bytes")

	ErrAlreadySubscribed = NewDomainError(KindConflict, ErrCodeAlreadySubscribed, "That email is already subscribed")
	ErrNoSubscribers     = NewDomainError(KindNotFound, ErrCodeNoSubscribers, "No subscribers found to send email to")

	ErrProductMissing = NewDomainError(KindNotFound, ErrCodeNotFound, "Product not found")

	ErrImageRequired = NewDomainError(KindValidation, ErrCodeMissingField, "No image file provided.")
	ErrImageType     = NewDomainError(KindValidation, ErrCodeInvalidField, "Images only! (jpg, jpeg, png)")
	ErrImageTooLarge = NewDomainError(KindValidation, ErrCodeInvalidField, "Image must not exceed 5MB")
)
