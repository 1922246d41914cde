// Package payment talks to the Paystack transaction API and authenticates
// its webhook deliveries.
package payment

import (
	"context"
	"errors"
	"math"
)

// Gateway initializes and verifies transactions with the payment provider.
type Gateway interface {
	// Initialize opens a hosted payment session for an order.
	Initialize(ctx context.Context, req InitializeRequest) (*Session, error)

	// Verify fetches the current state of a transaction by reference.
	Verify(ctx context.Context, reference string) (*Transaction, error)
}

// ErrUnavailable is returned while the circuit breaker refuses calls.
var ErrUnavailable = errors.New("payment gateway unavailable")

// StatusSuccess is the transaction status the gateway reports for a settled charge.
const StatusSuccess = "success"

// InitializeRequest describes a payment session to open.
type InitializeRequest struct {
	Email       string
	AmountMinor int64
	Reference   string
	CallbackURL string
	Currency    string
	Metadata    map[string]string
}

// Session is the hosted checkout the payer is redirected to.
type Session struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// Transaction is the gateway's view of a charge.
type Transaction struct {
	ID          int64
	Status      string
	Reference   string
	AmountMinor int64
	Currency    string
}

// ToMinorUnits converts a major-unit amount (naira) to kobo, rounding to the
// nearest unit so that 19.99 becomes 1999 rather than 1998.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
