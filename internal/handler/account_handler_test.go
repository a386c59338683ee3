package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/studymart-checkout/internal/middleware"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
)

// mockAccountService is a mock implementation of AccountServiceInterface.
type mockAccountService struct {
	listReferralsFn     func(ctx context.Context, userID string) ([]*model.Referral, error)
	listNotificationsFn func(ctx context.Context, userID string) ([]*model.Notification, error)
}

func (m *mockAccountService) ListReferrals(ctx context.Context, userID string) ([]*model.Referral, error) {
	if m.listReferralsFn != nil {
		return m.listReferralsFn(ctx, userID)
	}
	return []*model.Referral{}, nil
}

func (m *mockAccountService) ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error) {
	if m.listNotificationsFn != nil {
		return m.listNotificationsFn(ctx, userID)
	}
	return []*model.Notification{}, nil
}

func setupAccountApp(mockSvc *mockAccountService) *fiber.App {
	app := fiber.New()
	h := NewAccountHandler(mockSvc)
	api := app.Group("/api", middleware.Authenticate(testJWTSecret))
	api.Get("/referrals", h.ListReferrals)
	api.Get("/notifications", h.ListNotifications)
	return app
}

func TestListReferrals(t *testing.T) {
	var gotUser string
	app := setupAccountApp(&mockAccountService{
		listReferralsFn: func(ctx context.Context, userID string) ([]*model.Referral, error) {
			gotUser = userID
			return []*model.Referral{{ID: "r1", ReferrerUserID: userID, CouponCode: "FRIEND50"}}, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/referrals", bearer(t, buyerID), "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, buyerID, gotUser)
	var referrals []model.Referral
	require.NoError(t, json.Unmarshal(raw, &referrals))
	require.Len(t, referrals, 1)
	assert.Equal(t, "FRIEND50", referrals[0].CouponCode)
}

func TestListNotifications(t *testing.T) {
	app := setupAccountApp(&mockAccountService{
		listNotificationsFn: func(ctx context.Context, userID string) ([]*model.Notification, error) {
			return []*model.Notification{{ID: "n1", Title: "Order placed"}}, nil
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/notifications", bearer(t, buyerID), "")

	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, string(raw), `"title":"Order placed"`)
}

func TestAccountHandler_Errors(t *testing.T) {
	app := setupAccountApp(&mockAccountService{
		listReferralsFn: func(ctx context.Context, userID string) ([]*model.Referral, error) {
			return nil, errors.New("db down")
		},
		listNotificationsFn: func(ctx context.Context, userID string) ([]*model.Notification, error) {
			return nil, errors.New("db down")
		},
	})

	status, raw := doAuthed(t, app, http.MethodGet, "/api/referrals", bearer(t, buyerID), "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "internal server error", errorOf(t, raw))

	status, _ = doAuthed(t, app, http.MethodGet, "/api/notifications", bearer(t, buyerID), "")
	assert.Equal(t, fiber.StatusInternalServerError, status)

	status, _ = doAuthed(t, app, http.MethodGet, "/api/notifications", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
