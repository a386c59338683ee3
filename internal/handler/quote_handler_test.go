package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/studymart-checkout/internal/discount"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
	appvalidator "github.com/fairyhunter13/studymart-checkout/internal/validator"
)

// mockQuoter is a mock implementation of QuoterInterface.
type mockQuoter struct {
	quoteFn func(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote
}

func (m *mockQuoter) Quote(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
	if m.quoteFn != nil {
		return m.quoteFn(ctx, code, subtotal)
	}
	return &model.Quote{Subtotal: subtotal, FinalAmount: subtotal, Discount: decimal.Zero, ItemsValid: true}
}

// finderFunc adapts a function to discount.CouponFinder.
type finderFunc func(ctx context.Context, code string) (*model.Coupon, error)

func (f finderFunc) FindActiveByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return f(ctx, code)
}

const quotePath = "/functions/validate-coupon"

func setupQuoteApp(q QuoterInterface) *fiber.App {
	app := fiber.New()
	h := NewQuoteHandler(q, appvalidator.New())
	app.Options(quotePath, h.Preflight)
	app.Post(quotePath, h.ValidateCoupon)
	return app
}

func postQuote(t *testing.T, app *fiber.App, body string) (*http.Response, []byte) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, quotePath, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func assertCallableCORS(t *testing.T, resp *http.Response) {
	t.Helper()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "content-type")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}

func TestQuoteHandler_Preflight(t *testing.T) {
	app := setupQuoteApp(&mockQuoter{})

	resp, err := app.Test(httptest.NewRequest(http.MethodOptions, quotePath, nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assertCallableCORS(t, resp)
	body, _ := io.ReadAll(resp.Body)
	assert.Empty(t, body, "preflight body must be empty")
}

func TestQuoteHandler_ValidateCoupon_Welcome10(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	expires := now.Add(24 * time.Hour)
	maxDiscount := decimal.NewFromInt(150)
	var looked string
	engine := discount.NewEngineWithClock(finderFunc(func(ctx context.Context, code string) (*model.Coupon, error) {
		looked = code
		return &model.Coupon{
			Code:        "WELCOME10",
			Type:        model.CouponTypePercent,
			Value:       decimal.NewFromInt(10),
			MaxDiscount: &maxDiscount,
			ExpiresAt:   &expires,
			IsActive:    true,
		}, nil
	}), func() time.Time { return now })
	app := setupQuoteApp(engine)

	resp, raw := postQuote(t, app, `{"couponCode":"welcome10","subtotal":1000}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assertCallableCORS(t, resp)
	assert.Equal(t, "WELCOME10", looked)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, 1000.0, got["subtotal"])
	assert.Equal(t, 100.0, got["discount"], "amounts are JSON numbers")
	assert.Equal(t, 900.0, got["final_amount"])
	assert.Equal(t, true, got["coupon_valid"])
	assert.Equal(t, "Coupon applied! You save ₹100", got["coupon_message"])
	assert.Equal(t, true, got["items_valid"])
	assert.NotContains(t, got, "is_referral_code")
	assert.NotContains(t, got, "referrer_user_id")
}

func TestQuoteHandler_ValidateCoupon_RejectionIsOK(t *testing.T) {
	app := setupQuoteApp(&mockQuoter{
		quoteFn: func(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
			return &model.Quote{
				Subtotal:      subtotal,
				Discount:      decimal.Zero,
				FinalAmount:   subtotal,
				CouponMessage: discount.MsgInvalidCode,
				ItemsValid:    true,
			}
		},
	})

	resp, raw := postQuote(t, app, `{"couponCode":"NOPE","subtotal":499.99}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got model.QuoteResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.False(t, got.CouponValid)
	assert.Equal(t, "Invalid coupon code", got.CouponMessage)
	assert.Equal(t, 499.99, got.Subtotal)
	assert.Equal(t, 499.99, got.FinalAmount)
	assert.Zero(t, got.Discount)
}

func TestQuoteHandler_ValidateCoupon_ReferralFields(t *testing.T) {
	app := setupQuoteApp(&mockQuoter{
		quoteFn: func(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
			return &model.Quote{
				Subtotal:       subtotal,
				Discount:       decimal.NewFromInt(50),
				FinalAmount:    subtotal.Sub(decimal.NewFromInt(50)),
				CouponCode:     "FRIEND50",
				CouponValid:    true,
				CouponMessage:  "Coupon applied! You save ₹50",
				ItemsValid:     true,
				IsReferralCode: true,
				ReferrerUserID: "2f0e7a1c-54f7-4a39-9f5d-6a8d0b9c1e22",
			}
		},
	})

	_, raw := postQuote(t, app, `{"couponCode":"FRIEND50","subtotal":300}`)

	var got model.QuoteResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.True(t, got.IsReferralCode)
	assert.Equal(t, "2f0e7a1c-54f7-4a39-9f5d-6a8d0b9c1e22", got.ReferrerUserID)
	assert.Equal(t, 250.0, got.FinalAmount)
}

func TestQuoteHandler_ValidateCoupon_EmptyCode(t *testing.T) {
	var gotCode string
	app := setupQuoteApp(&mockQuoter{
		quoteFn: func(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
			gotCode = code
			return &model.Quote{Subtotal: subtotal, FinalAmount: subtotal, ItemsValid: true}
		},
	})

	resp, raw := postQuote(t, app, `{"subtotal":120}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Empty(t, gotCode)
	assert.NotContains(t, string(raw), "coupon_message")
}

func TestQuoteHandler_ValidateCoupon_IgnoresContentType(t *testing.T) {
	app := setupQuoteApp(&mockQuoter{})

	for _, ctype := range []string{"", "text/plain", "application/x-www-form-urlencoded"} {
		t.Run("ctype_"+ctype, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, quotePath, bytes.NewBufferString(`{"couponCode":"","subtotal":250}`))
			if ctype != "" {
				req.Header.Set("Content-Type", ctype)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, fiber.StatusOK, resp.StatusCode)
			var got model.QuoteResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, 250.0, got.Subtotal)
			assert.Equal(t, 250.0, got.FinalAmount)
		})
	}
}

func TestQuoteHandler_ValidateCoupon_BadRequests(t *testing.T) {
	testCases := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"malformed_json", `{"couponCode":`, "invalid request body"},
		{"empty_body", ``, "invalid request body"},
		{"missing_subtotal", `{"couponCode":"SAVE10"}`, "invalid request: subtotal is required"},
		{"negative_subtotal", `{"couponCode":"SAVE10","subtotal":-1}`, "invalid request: subtotal must be at least 0"},
		{"code_too_long", `{"couponCode":"` + string(bytes.Repeat([]byte("A"), 65)) + `","subtotal":10}`, "invalid request: couponCode exceeds maximum of 64"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			app := setupQuoteApp(&mockQuoter{
				quoteFn: func(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
					called = true
					return nil
				},
			})

			resp, raw := postQuote(t, app, tc.body)

			assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
			assertCallableCORS(t, resp)
			assert.False(t, called)

			var got model.QuoteErrorResponse
			require.NoError(t, json.Unmarshal(raw, &got))
			assert.Equal(t, tc.wantErr, got.Error)
			assert.False(t, got.CouponValid)
			assert.Zero(t, got.Discount)
		})
	}
}

func TestQuoteHandler_ValidateCoupon_InternalError(t *testing.T) {
	app := setupQuoteApp(&mockQuoter{
		quoteFn: func(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote {
			panic(errors.New("unexpected state"))
		},
	})

	resp, raw := postQuote(t, app, `{"couponCode":"SAVE10","subtotal":100}`)

	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assertCallableCORS(t, resp)
	assert.JSONEq(t, `{"error":"Internal server error","coupon_valid":false,"discount":0}`, string(raw))
}

func TestQuoteHandler_ValidateCoupon_LookupFailureSoftFails(t *testing.T) {
	engine := discount.NewEngine(finderFunc(func(ctx context.Context, code string) (*model.Coupon, error) {
		return nil, errors.New("connection refused")
	}))
	app := setupQuoteApp(engine)

	resp, raw := postQuote(t, app, `{"couponCode":"SAVE10","subtotal":100}`)

	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var got model.QuoteResponse
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.False(t, got.CouponValid)
	assert.Equal(t, "Error validating coupon", got.CouponMessage)
	assert.Equal(t, 100.0, got.FinalAmount)
}
