package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/mail"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/router"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const paystackSecret = "sk_test_integration"

// outbox captures every email the server sends.
type outbox struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (o *outbox) Send(_ context.Context, msg mail.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) withSubject(subject string) []mail.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []mail.Message
	for _, m := range o.sent {
		if strings.Contains(m.Subject, subject) {
			out = append(out, m)
		}
	}
	return out
}

// fakePaystack serves the two transaction endpoints the gateway client uses.
// Every initialized reference verifies as a successful charge of the
// initialized amount.
type fakePaystack struct {
	mu      sync.Mutex
	amounts map[string]int64
}

func newFakePaystack(t *testing.T) (*fakePaystack, *httptest.Server) {
	t.Helper()
	f := &fakePaystack{amounts: map[string]int64{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /transaction/initialize", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+paystackSecret {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var body struct {
			Amount    int64  `json:"amount"`
			Reference string `json:"reference"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.amounts[body.Reference] = body.Amount
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]string{
				"authorization_url": "https://checkout.paystack.test/" + body.Reference,
				"access_code":       "ac_" + body.Reference[:8],
				"reference":         body.Reference,
			},
		})
	})
	mux.HandleFunc("GET /transaction/verify/{reference}", func(w http.ResponseWriter, r *http.Request) {
		ref := r.PathValue("reference")
		f.mu.Lock()
		amount, ok := f.amounts[ref]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Transaction reference not found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"id": 4099260516, "status": payment.StatusSuccess, "reference": ref,
				"amount": amount, "currency": "NGN",
			},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePaystack) amount(reference string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.amounts[reference]
}

func setupTestServer(t *testing.T, testDB *TestDB, paystackURL string, box *outbox) http.Handler {
	t.Helper()

	logger := zerolog.Nop()

	// Initialize repositories
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	userRepo := repository.NewUserRepository(testDB.Pool, logger)
	subscriberRepo := repository.NewSubscriberRepository(testDB.Pool, logger)

	gateway := payment.NewPaystackClient(payment.PaystackConfig{
		SecretKey: paystackSecret,
		BaseURL:   paystackURL,
		Currency:  "NGN",
		Timeout:   5 * time.Second,
	}, logger)

	templates, err := mail.NewTemplates("Pindows Elite", "https://shop.example.com")
	require.NoError(t, err)

	m := metrics.New()
	notifier := service.NewNotifier(box, templates, m, logger)
	tokens := auth.NewTokenManager("integration-jwt-secret", time.Hour, 15*time.Minute)

	// Initialize services
	userService := service.NewUserService(userRepo, tokens, notifier, time.Hour, 15*time.Minute, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, gateway, service.CheckoutConfig{
		CallbackURL: "https://shop.example.com/checkout/callback",
		Currency:    "NGN",
	}, logger)
	paymentService := service.NewPaymentService(orderRepo, gateway, notifier, paystackSecret, m, logger)

	// Initialize handlers
	v := handler.NewValidator()
	return router.New(router.Handlers{
		Product:    handler.NewProductHandler(service.NewProductService(productRepo, logger), v, logger),
		Order:      handler.NewOrderHandler(orderService, v, logger),
		Payment:    handler.NewPaymentHandler(paymentService, logger),
		User:       handler.NewUserHandler(userService, v, logger),
		Subscriber: handler.NewSubscriberHandler(service.NewSubscriberService(subscriberRepo, notifier, logger), v, logger),
		Upload:     handler.NewUploadHandler(service.NewUploadService(nil, logger), logger),
	}, router.Options{
		Authenticator: userService,
		Metrics:       m,
	}, logger)
}

func doJSON(t *testing.T, server http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, server http.Handler, email, password string) string {
	t.Helper()
	w := doJSON(t, server, http.MethodPost, "/api/users/login", "", model.LoginRequest{Email: email, Password: password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func signedWebhook(t *testing.T, server http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/orders/paystack/webhook", bytes.NewReader(body))
	req.Header.Set(payment.SignatureHeader, signature)
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)
	return w
}

func TestCheckoutAndPayment_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	gateway, paystack := newFakePaystack(t)
	box := &outbox{}
	server := setupTestServer(t, testDB, paystack.URL, box)

	CleanupDB(t, testDB.Pool)
	admin := SeedUser(t, testDB.Pool, "admin@example.com", "admin-pass", model.RoleAdmin)
	products := SeedProducts(t, testDB.Pool, admin.ID)
	tote := products[0]

	guestEmail := "guest@example.com"
	orderReq := model.OrderRequest{
		Items: []model.OrderItemRequest{
			{ProductID: tote.ID, Name: tote.Name, Quantity: 2, Price: tote.Price, Image: tote.Image},
		},
		ShippingAddress: model.ShippingAddress{
			StreetAddress: "12 Admiralty Way",
			City:          "Lekki",
			State:         "Lagos",
			PostalCode:    "106104",
			Country:       "Nigeria",
			ContactPhone:  "+2348031234567",
		},
		TotalPrice: 5000.00,
		BuyerName:  "Guest Buyer",
		BuyerEmail: guestEmail,
	}

	var checkout model.CheckoutResponse
	t.Run("Guest checkout opens a payment session", func(t *testing.T) {
		w := doJSON(t, server, http.MethodPost, "/api/orders", "", orderReq)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checkout))

		assert.Equal(t, checkout.OrderID.String(), checkout.Reference)
		assert.Equal(t, "https://checkout.paystack.test/"+checkout.Reference, checkout.AuthorizationURL)
		assert.Equal(t, int64(500000), gateway.amount(checkout.Reference))
	})

	t.Run("Unknown product is rejected", func(t *testing.T) {
		bad := orderReq
		bad.Items = []model.OrderItemRequest{{ProductID: admin.ID, Quantity: 1, Price: 1}}
		w := doJSON(t, server, http.MethodPost, "/api/orders", "", bad)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Forged webhook is rejected", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":1,"status":"success","reference":%q,"amount":500000,"currency":"NGN"}}`, checkout.Reference))
		w := signedWebhook(t, server, body, payment.Sign("wrong-secret", body))
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		orders := guestOrders(t, server, guestEmail)
		require.Len(t, orders, 1)
		assert.False(t, orders[0].IsPaid)
	})

	t.Run("Webhook with wrong amount is acknowledged and ignored", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":2,"status":"success","reference":%q,"amount":100,"currency":"NGN"}}`, checkout.Reference))
		w := signedWebhook(t, server, body, payment.Sign(paystackSecret, body))
		assert.Equal(t, http.StatusOK, w.Code)

		orders := guestOrders(t, server, guestEmail)
		assert.False(t, orders[0].IsPaid)
	})

	t.Run("Signed webhook marks the order paid once", func(t *testing.T) {
		body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"id":4099260516,"status":"success","reference":%q,"amount":500000,"currency":"NGN"}}`, checkout.Reference))
		sig := payment.Sign(paystackSecret, body)

		for i := 0; i < 2; i++ {
			w := signedWebhook(t, server, body, sig)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"received":true}`, w.Body.String())
		}

		orders := guestOrders(t, server, guestEmail)
		require.Len(t, orders, 1)
		assert.True(t, orders[0].IsPaid)
		require.NotNil(t, orders[0].PaidAt)
		require.NotNil(t, orders[0].PaymentResult)
		assert.Equal(t, "4099260516", orders[0].PaymentResult.ID)
		assert.Len(t, box.withSubject("is Confirmed!"), 1)
	})

	t.Run("Redirect after webhook is a no-op", func(t *testing.T) {
		before := guestOrders(t, server, guestEmail)[0].PaidAt

		w := doJSON(t, server, http.MethodGet, "/api/orders/paystack/verify/"+checkout.Reference, "", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), "Payment successful")

		after := guestOrders(t, server, guestEmail)[0].PaidAt
		assert.True(t, before.Equal(*after))
		assert.Len(t, box.withSubject("is Confirmed!"), 1)
	})

	t.Run("Admin fulfils the order", func(t *testing.T) {
		token := login(t, server, admin.Email, "admin-pass")
		path := "/api/orders/" + checkout.OrderID.String() + "/status"

		w := doJSON(t, server, http.MethodPut, path, token, model.StatusUpdateRequest{Status: model.StatusShipped})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var shipped struct {
			Message string      `json:"message"`
			Order   model.Order `json:"order"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &shipped))
		assert.Equal(t, "Order updated to Shipped", shipped.Message)
		require.NotNil(t, shipped.Order.Delivery.TrackingNumber)
		assert.Regexp(t, `^TRK-\d+$`, *shipped.Order.Delivery.TrackingNumber)

		w = doJSON(t, server, http.MethodPut, path, token, model.StatusUpdateRequest{Status: model.StatusCancelled})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func guestOrders(t *testing.T, server http.Handler, email string) []model.Order {
	t.Helper()
	w := doJSON(t, server, http.MethodGet, "/api/orders/guest/"+email, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var orders []model.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &orders))
	return orders
}

func TestAccountLifecycle_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	_, paystack := newFakePaystack(t)
	box := &outbox{}
	server := setupTestServer(t, testDB, paystack.URL, box)
	CleanupDB(t, testDB.Pool)

	register := model.RegisterRequest{
		Name:        "Ngozi Eze",
		Email:       "ngozi@example.com",
		PhoneNumber: "+2348099998888",
		Password:    "first-pass",
	}

	w := doJSON(t, server, http.MethodPost, "/api/users/register", "", register)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, server, http.MethodPost, "/api/users/register", "", register)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/users/login", "", model.LoginRequest{Email: register.Email, Password: register.Password})
	assert.Equal(t, http.StatusForbidden, w.Code)

	verify := box.withSubject("Verify")
	require.Len(t, verify, 1)
	_, token, found := strings.Cut(verify[0].Text, "/verify-email/")
	require.True(t, found)

	w = doJSON(t, server, http.MethodGet, "/api/users/verify/"+strings.TrimSpace(token), "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	access := login(t, server, register.Email, register.Password)

	w = doJSON(t, server, http.MethodGet, "/api/orders/myorders", access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = doJSON(t, server, http.MethodGet, "/api/orders/admin", access, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/users/forgot-password", "", model.ForgotPasswordRequest{Email: register.Email})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	reset := box.withSubject("Reset Your Password")
	require.Len(t, reset, 1)
	_, resetToken, found := strings.Cut(reset[0].Text, "/reset-password/")
	require.True(t, found)

	w = doJSON(t, server, http.MethodPost, "/api/users/reset-password/"+strings.TrimSpace(resetToken), "", model.ResetPasswordRequest{Password: "second-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	login(t, server, register.Email, "second-pass")
}

func TestSubscribers_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	_, paystack := newFakePaystack(t)
	box := &outbox{}
	server := setupTestServer(t, testDB, paystack.URL, box)
	CleanupDB(t, testDB.Pool)
	admin := SeedUser(t, testDB.Pool, "admin@example.com", "admin-pass", model.RoleAdmin)
	token := login(t, server, admin.Email, "admin-pass")

	campaign := model.CampaignRequest{Subject: "New arrivals", Body: "Fresh stock this week"}

	w := doJSON(t, server, http.MethodPost, "/api/subscribers/send-update", token, campaign)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		w = doJSON(t, server, http.MethodPost, "/api/subscribers", "", model.SubscribeRequest{Email: email})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	w = doJSON(t, server, http.MethodPost, "/api/subscribers", "", model.SubscribeRequest{Email: "A@example.com"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, server, http.MethodPost, "/api/subscribers/send-update", token, campaign)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"sentCount":2`)

	sent := box.withSubject("New arrivals")
	require.Len(t, sent, 1)
	assert.ElementsMatch(t, []string{"a@example.com", "b@example.com"}, sent[0].Bcc)
}
