package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/studymart-checkout/internal/middleware"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
)

// AccountServiceInterface defines the per-user read endpoints.
type AccountServiceInterface interface {
	ListReferrals(ctx context.Context, userID string) ([]*model.Referral, error)
	ListNotifications(ctx context.Context, userID string) ([]*model.Notification, error)
}

// AccountHandler serves the authenticated user's referrals and notifications.
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: svc}
}

// ListReferrals handles GET /api/referrals.
func (h *AccountHandler) ListReferrals(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	referrals, err := h.service.ListReferrals(c.Context(), userID)
	if err != nil {
		withRequest(c, log.Error().Err(err)).Str("user_id", userID).Msg("failed to list referrals")
		return internalServerError(c)
	}
	return c.JSON(referrals)
}

// ListNotifications handles GET /api/notifications.
func (h *AccountHandler) ListNotifications(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	notifications, err := h.service.ListNotifications(c.Context(), userID)
	if err != nil {
		withRequest(c, log.Error().Err(err)).Str("user_id", userID).Msg("failed to list notifications")
		return internalServerError(c)
	}
	return c.JSON(notifications)
}
