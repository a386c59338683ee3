package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/studymart-checkout/internal/middleware"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/internal/service"
	appvalidator "github.com/fairyhunter13/studymart-checkout/internal/validator"
)

const (
	testJWTSecret = "handler-test-secret"
	buyerID       = "7d1c2b8e-0a55-4a4f-9d1e-3c2b1a0f9e8d"
	bookID        = "0b6f5b3e-1f0c-4d8e-8a55-1c2d3e4f5a6b"
)

// mockOrderService is a mock implementation of OrderServiceInterface.
type mockOrderService struct {
	placeOrderFn   func(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error)
	getOrderFn     func(ctx context.Context, userID, orderID string) (*model.Order, error)
	listOrdersFn   func(ctx context.Context, userID string) ([]*model.Order, error)
	listProductsFn func(ctx context.Context) ([]*model.Product, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error) {
	if m.placeOrderFn != nil {
		return m.placeOrderFn(ctx, userID, req)
	}
	return &model.Order{ID: "order-1", UserID: userID, Status: model.OrderStatusPending}, nil
}

func (m *mockOrderService) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	if m.getOrderFn != nil {
		return m.getOrderFn(ctx, userID, orderID)
	}
	return nil, service.ErrOrderNotFound
}

func (m *mockOrderService) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	if m.listOrdersFn != nil {
		return m.listOrdersFn(ctx, userID)
	}
	return []*model.Order{}, nil
}

func (m *mockOrderService) ListProducts(ctx context.Context) ([]*model.Product, error) {
	if m.listProductsFn != nil {
		return m.listProductsFn(ctx)
	}
	return []*model.Product{}, nil
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testJWTSecret))
	require.NoError(t, err)
	return "Bearer " + s
}

func setupOrderApp(mockSvc *mockOrderService) *fiber.App {
	app := fiber.New()
	h := NewOrderHandler(mockSvc, appvalidator.New())
	app.Get("/api/products", h.ListProducts)
	orders := app.Group("/api/orders", middleware.Authenticate(testJWTSecret))
	orders.Post("/", h.PlaceOrder)
	orders.Get("/", h.ListOrders)
	orders.Get("/:id", h.GetOrder)
	return app
}

func doAuthed(t *testing.T, app *fiber.App, method, path, auth, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func orderBody(format string) string {
	return fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":2,"format":%q}],"coupon_code":"welcome10"}`, bookID, format)
}

func TestListProducts(t *testing.T) {
	app := setupOrderApp(&mockOrderService{
		listProductsFn: func(ctx context.Context) ([]*model.Product, error) {
			return []*model.Product{{ID: bookID, Title: "Physics Vol. 1", Price: decimal.RequireFromString("450.00"), HasPDF: true}}, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/products", "", "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"title":"Physics Vol. 1"`)
	assert.Contains(t, string(raw), `"has_pdf":true`)
}

func TestPlaceOrder_Success(t *testing.T) {
	code := "WELCOME10"
	var gotUser string
	var gotReq *model.CreateOrderRequest
	app := setupOrderApp(&mockOrderService{
		placeOrderFn: func(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error) {
			gotUser = userID
			gotReq = req
			return &model.Order{
				ID:             "order-1",
				UserID:         userID,
				Status:         model.OrderStatusPending,
				CouponCode:     &code,
				TotalAmount:    decimal.RequireFromString("900"),
				DiscountAmount: decimal.RequireFromString("90"),
				FinalAmount:    decimal.RequireFromString("810"),
			}, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodPost, "/api/orders", bearer(t, buyerID), orderBody("PHYSICAL"))

	assert.Equal(t, fiber.StatusCreated, status)
	assert.Equal(t, buyerID, gotUser, "user id comes from the token")
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, model.FormatPhysical, gotReq.Items[0].Format)
	assert.Equal(t, "welcome10", gotReq.CouponCode)

	var order model.Order
	require.NoError(t, json.Unmarshal(raw, &order))
	assert.Equal(t, "810", order.FinalAmount.String())
	require.NotNil(t, order.CouponCode)
	assert.Equal(t, "WELCOME10", *order.CouponCode)
}

func TestPlaceOrder_RequiresAuth(t *testing.T) {
	called := false
	app := setupOrderApp(&mockOrderService{
		placeOrderFn: func(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error) {
			called = true
			return nil, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodPost, "/api/orders", "", orderBody("PDF"))

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorOf(t, raw))
	assert.False(t, called)
}

func TestPlaceOrder_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"no_items", `{"items":[]}`, "invalid request: items needs at least 1"},
		{"missing_items", `{}`, "invalid request: items is required"},
		{"bad_product_id", `{"items":[{"product_id":"abc","quantity":1,"format":"PDF"}]}`, "invalid request: product_id must be a UUID"},
		{"zero_quantity", fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":0,"format":"PDF"}]}`, bookID), "invalid request: quantity is required"},
		{"bad_format", fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":1,"format":"EPUB"}]}`, bookID), "invalid request: format must be one of PDF PHYSICAL"},
		{"malformed", `{"items":`, "invalid request body"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := setupOrderApp(&mockOrderService{})

			status, raw := doAuthed(t, app, http.MethodPost, "/api/orders", bearer(t, buyerID), tc.body)

			assert.Equal(t, fiber.StatusBadRequest, status)
			assert.Equal(t, tc.wantErr, errorOf(t, raw))
		})
	}
}

func TestPlaceOrder_ServiceErrors(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
		wantErr    string
	}{
		{"product_not_found", fmt.Errorf("%w: %s", service.ErrProductNotFound, bookID), fiber.StatusNotFound, "product not found"},
		{"format_unavailable", fmt.Errorf("%w: %s as PHYSICAL", service.ErrFormatUnavailable, bookID), fiber.StatusUnprocessableEntity, "format unavailable"},
		{"invalid", service.ErrInvalidRequest, fiber.StatusBadRequest, "invalid request"},
		{"unexpected", errors.New("commit order: connection reset"), fiber.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app := setupOrderApp(&mockOrderService{
				placeOrderFn: func(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error) {
					return nil, tc.err
				},
			})

			status, raw := doAuthed(t, app, http.MethodPost, "/api/orders", bearer(t, buyerID), orderBody("PHYSICAL"))

			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantErr, errorOf(t, raw))
		})
	}
}

func TestGetOrder(t *testing.T) {
	app := setupOrderApp(&mockOrderService{
		getOrderFn: func(ctx context.Context, userID, orderID string) (*model.Order, error) {
			if userID == buyerID && orderID == "order-1" {
				return &model.Order{ID: orderID, UserID: userID}, nil
			}
			return nil, service.ErrOrderNotFound
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/orders/order-1", bearer(t, buyerID), "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"id":"order-1"`)

	status, raw = doAuthed(t, app, http.MethodGet, "/api/orders/order-1", bearer(t, "0f3a9c4e-5b6d-4e7f-8a9b-1c2d3e4f5a6b"), "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, "order not found", errorOf(t, raw))
}

func TestOrders_NonUUIDSubject(t *testing.T) {
	called := false
	app := setupOrderApp(&mockOrderService{
		listOrdersFn: func(ctx context.Context, userID string) ([]*model.Order, error) {
			called = true
			return nil, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/orders", bearer(t, "user-42"), "")

	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "unauthorized", errorOf(t, raw))
	assert.False(t, called)
}

func TestGetOrder_InternalError(t *testing.T) {
	app := setupOrderApp(&mockOrderService{
		getOrderFn: func(ctx context.Context, userID, orderID string) (*model.Order, error) {
			return nil, errors.New("timeout")
		},
	})

	status, _ := doAuthed(t, app, http.MethodGet, "/api/orders/order-1", bearer(t, buyerID), "")

	assert.Equal(t, fiber.StatusInternalServerError, status)
}

func TestListOrders(t *testing.T) {
	var gotUser string
	app := setupOrderApp(&mockOrderService{
		listOrdersFn: func(ctx context.Context, userID string) ([]*model.Order, error) {
			gotUser = userID
			return []*model.Order{{ID: "a"}, {ID: "b"}}, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/orders", bearer(t, buyerID), "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, buyerID, gotUser)
	var orders []model.Order
	require.NoError(t, json.Unmarshal(raw, &orders))
	assert.Len(t, orders, 2)
}
