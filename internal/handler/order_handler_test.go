package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func orderRouter(svc *MockOrderService, caller *auth.Identity) http.Handler {
	h := NewOrderHandler(svc, NewValidator(), zerolog.Nop())
	r := chi.NewRouter()
	if caller != nil {
		r.Use(asCaller(*caller))
	}
	r.Post("/api/orders", h.Create)
	r.Get("/api/orders/admin", h.ListAll)
	r.Get("/api/orders/myorders", h.ListMine)
	r.Get("/api/orders/guest/{email}", h.ListGuest)
	r.Put("/api/orders/{id}/status", h.UpdateStatus)
	r.Delete("/api/orders/{id}", h.Delete)
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestOrderHandler_Create(t *testing.T) {
	orderID := uuid.New()
	checkout := &model.CheckoutResponse{
		OrderID:          orderID,
		AuthorizationURL: "https://checkout.paystack.com/abc",
		Reference:        orderID.String(),
		Message:          "Payment initialized successfully",
	}
	caller := &auth.Identity{UserID: uuid.New(), Email: "ada@example.com", Role: model.RoleUser}

	tests := []struct {
		name           string
		caller         *auth.Identity
		body           string
		mockReturn     *model.CheckoutResponse
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Guest checkout",
			body:           `{"orderItems":[{"product":"` + uuid.NewString() + `","qty":1,"price":10}],"totalPrice":10,"buyerName":"Ada","buyerEmail":"ada@example.com"}`,
			mockReturn:     checkout,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Signed in checkout",
			caller:         caller,
			body:           `{"orderItems":[{"product":"` + uuid.NewString() + `","qty":1,"price":10}],"totalPrice":10}`,
			mockReturn:     checkout,
			expectedStatus: http.StatusCreated,
			expectService:  true,
		},
		{
			name:           "Validation error",
			body:           `{"orderItems":[]}`,
			mockError:      model.ErrNoOrderItems,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Gateway unavailable",
			body:           `{"orderItems":[]}`,
			mockError:      model.ErrGatewayUnavailable,
			expectedStatus: http.StatusServiceUnavailable,
			expectService:  true,
		},
		{
			name:           "Gateway failure",
			body:           `{"orderItems":[]}`,
			mockError:      model.ErrGatewayFailure,
			expectedStatus: http.StatusInternalServerError,
			expectService:  true,
		},
		{
			name:           "Invalid JSON",
			body:           `{"orderItems":`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tt.expectService {
				svc.On("CreateOrder", mock.Anything, tt.caller, mock.AnythingOfType("*model.OrderRequest")).
					Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			orderRouter(svc, tt.caller).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusCreated {
				var got model.CheckoutResponse
				decodeBody(t, rec, &got)
				assert.Equal(t, orderID, got.OrderID)
				assert.Equal(t, checkout.AuthorizationURL, got.AuthorizationURL)
			}
			if !tt.expectService {
				svc.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_ErrorBody(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListGuest", mock.Anything, "nobody@example.com").Return(nil, model.ErrNoGuestOrders)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/guest/nobody@example.com", nil)
	rec := httptest.NewRecorder()
	orderRouter(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body model.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, model.ErrCodeNoOrders, body.Error)
	assert.Equal(t, "No orders found for this email", body.Message)
}

func TestOrderHandler_UnexpectedErrorIsGeneric(t *testing.T) {
	svc := new(MockOrderService)
	svc.On("ListAll", mock.Anything).Return(nil, errors.New("pq: connection refused"))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/admin", nil)
	rec := httptest.NewRecorder()
	orderRouter(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body model.ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, model.ErrCodeInternalError, body.Error)
	assert.NotContains(t, rec.Body.String(), "connection refused")
}

func TestOrderHandler_ListMine(t *testing.T) {
	caller := auth.Identity{UserID: uuid.New(), Email: "ada@example.com", Role: model.RoleUser}

	t.Run("Returns caller orders", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ListMine", mock.Anything, caller).Return([]model.Order{{ID: uuid.New()}}, nil)

		rec := httptest.NewRecorder()
		orderRouter(svc, &caller).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/myorders", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var orders []model.Order
		decodeBody(t, rec, &orders)
		assert.Len(t, orders, 1)
	})

	t.Run("Empty list is an array", func(t *testing.T) {
		svc := new(MockOrderService)
		svc.On("ListMine", mock.Anything, caller).Return([]model.Order{}, nil)

		rec := httptest.NewRecorder()
		orderRouter(svc, &caller).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/myorders", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Without identity", func(t *testing.T) {
		svc := new(MockOrderService)

		rec := httptest.NewRecorder()
		orderRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders/myorders", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		svc.AssertNotCalled(t, "ListMine", mock.Anything, mock.Anything)
	})
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	orderID := uuid.New()

	tests := []struct {
		name           string
		path           string
		body           string
		mockReturn     *model.Order
		mockError      error
		expectedStatus int
		expectService  bool
	}{
		{
			name:           "Shipped",
			path:           "/api/orders/" + orderID.String() + "/status",
			body:           `{"status":"Shipped"}`,
			mockReturn:     &model.Order{ID: orderID, Status: model.StatusShipped, IsPaid: true},
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:           "Rejected status",
			path:           "/api/orders/" + orderID.String() + "/status",
			body:           `{"status":"Cancelled"}`,
			mockError:      model.ErrInvalidStatus,
			expectedStatus: http.StatusBadRequest,
			expectService:  true,
		},
		{
			name:           "Unknown order",
			path:           "/api/orders/" + orderID.String() + "/status",
			body:           `{"status":"Processing"}`,
			mockError:      model.ErrOrderNotFound,
			expectedStatus: http.StatusNotFound,
			expectService:  true,
		},
		{
			name:           "Missing status",
			path:           "/api/orders/" + orderID.String() + "/status",
			body:           `{}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Bad id",
			path:           "/api/orders/not-a-uuid/status",
			body:           `{"status":"Shipped"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			if tt.expectService {
				var status model.OrderStatus
				var payload map[string]string
				require.NoError(t, json.Unmarshal([]byte(tt.body), &payload))
				status = model.OrderStatus(payload["status"])
				svc.On("UpdateStatus", mock.Anything, orderID, status).Return(tt.mockReturn, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPut, tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			orderRouter(svc, nil).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedStatus == http.StatusOK {
				var body struct {
					Message string      `json:"message"`
					Order   model.Order `json:"order"`
				}
				decodeBody(t, rec, &body)
				assert.Equal(t, "Order updated to Shipped", body.Message)
				assert.Equal(t, orderID, body.Order.ID)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_Delete(t *testing.T) {
	orderID := uuid.New()
	caller := auth.Identity{UserID: uuid.New(), Role: model.RoleUser}

	tests := []struct {
		name           string
		mockError      error
		expectedStatus int
	}{
		{name: "Delivered order removed", expectedStatus: http.StatusOK},
		{name: "Not the owner", mockError: model.ErrNotOrderOwner, expectedStatus: http.StatusForbidden},
		{name: "Not delivered", mockError: model.ErrOrderNotDelivered, expectedStatus: http.StatusBadRequest},
		{name: "Missing", mockError: model.ErrOrderNotFound, expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOrderService)
			svc.On("Delete", mock.Anything, caller, orderID).Return(tt.mockError)

			req := httptest.NewRequest(http.MethodDelete, "/api/orders/"+orderID.String(), nil)
			rec := httptest.NewRecorder()
			orderRouter(svc, &caller).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.mockError == nil {
				assert.JSONEq(t, `{"message":"Order successfully removed from user history."}`, rec.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}
