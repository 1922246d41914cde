package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// PaystackConfig holds what the client needs to reach the API.
type PaystackConfig struct {
	SecretKey string
	BaseURL   string
	Currency  string
	Timeout   time.Duration
}

type paystackClient struct {
	cfg     PaystackConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

// NewPaystackClient creates a Gateway backed by the Paystack REST API. Calls
// go through a circuit breaker so that a failing provider is not hammered by
// every checkout.
func NewPaystackClient(cfg PaystackConfig, logger zerolog.Logger) Gateway {
	logger = logger.With().Str("component", "paystack").Logger()

	settings := gobreaker.Settings{
		Name:        "Paystack",
		MaxRequests: 3,
		Interval:    5 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &paystackClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

type envelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type initializeBody struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Currency    string            `json:"currency,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	ID        int64  `json:"id"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

func (c *paystackClient) Initialize(ctx context.Context, req InitializeRequest) (*Session, error) {
	currency := req.Currency
	if currency == "" {
		currency = c.cfg.Currency
	}

	body := initializeBody{
		Email:       req.Email,
		Amount:      req.AmountMinor,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Currency:    currency,
		Metadata:    req.Metadata,
	}

	var out envelope[initializeData]
	if err := c.call(ctx, http.MethodPost, "/transaction/initialize", body, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack initialization failed: %s", out.Message)
	}

	c.logger.Info().
		Str("reference", out.Data.Reference).
		Int64("amount", req.AmountMinor).
		Msg("payment session initialized")

	return &Session{
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
		Reference:        out.Data.Reference,
	}, nil
}

func (c *paystackClient) Verify(ctx context.Context, reference string) (*Transaction, error) {
	var out envelope[verifyData]
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		return nil, fmt.Errorf("paystack verification failed: %s", out.Message)
	}

	return &Transaction{
		ID:          out.Data.ID,
		Status:      out.Data.Status,
		Reference:   out.Data.Reference,
		AmountMinor: out.Data.Amount,
		Currency:    out.Data.Currency,
	}, nil
}

// call runs one API request through the breaker. Undecodable 4xx answers
// are returned as errors but do not count against the provider's health.
func (c *paystackClient) call(ctx context.Context, method, path string, in, out any) error {
	var clientErr error

	_, err := c.breaker.Execute(func() (interface{}, error) {
		status, err := c.do(ctx, method, path, in, out)
		if err != nil && status >= 400 && status < 500 {
			clientErr = err
			return nil, nil
		}
		return nil, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn().Str("path", path).Msg("circuit breaker open, skipping gateway call")
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		c.logger.Error().Err(err).Str("path", path).Msg("gateway call failed")
		return err
	}

	return clientErr
}

func (c *paystackClient) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("failed to encode paystack request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.cfg.BaseURL, "/")+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.SecretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach paystack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return resp.StatusCode, fmt.Errorf("paystack %s %s returned status %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode paystack response (status %d): %w", resp.StatusCode, err)
	}

	return resp.StatusCode, nil
}
