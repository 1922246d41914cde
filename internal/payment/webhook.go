package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw webhook body.
const SignatureHeader = "x-paystack-signature"

// EventChargeSuccess is the only webhook event that confirms payment.
const EventChargeSuccess = "charge.success"

// VerifySignature reports whether signature is the HMAC-SHA512 of body under
// secret. The comparison runs in constant time over the exact bytes received.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	expected, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Sign computes the signature Paystack would send for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookEvent is the envelope of a webhook delivery.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  WebhookData `json:"data"`
}

// WebhookData is the charge carried by a webhook event.
type WebhookData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

// ParseEvent decodes an already authenticated webhook body.
func ParseEvent(body []byte) (*WebhookEvent, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode webhook event: %w", err)
	}
	return &ev, nil
}

// IsChargeSuccess reports whether the event confirms a settled charge.
func (e *WebhookEvent) IsChargeSuccess() bool {
	return e.Event == EventChargeSuccess && e.Data.Status == StatusSuccess
}

// Transaction views the event's charge the same way Verify does.
func (e *WebhookEvent) Transaction() *Transaction {
	return &Transaction{
		ID:          e.Data.ID,
		Status:      e.Data.Status,
		Reference:   e.Data.Reference,
		AmountMinor: e.Data.Amount,
		Currency:    e.Data.Currency,
	}
}
