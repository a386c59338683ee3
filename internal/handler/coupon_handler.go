package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/internal/service"
)

// CouponServiceInterface defines the interface for coupon administration.
type CouponServiceInterface interface {
	Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error)
	Get(ctx context.Context, code string) (*model.Coupon, error)
	List(ctx context.Context, activeOnly bool) ([]*model.Coupon, error)
	Update(ctx context.Context, code string, req *model.UpdateCouponRequest) (*model.Coupon, error)
	Deactivate(ctx context.Context, code string) error
}

// CouponHandler handles the back-office coupon endpoints.
type CouponHandler struct {
	service   CouponServiceInterface
	validator *validator.Validate
}

// NewCouponHandler creates a new CouponHandler with the given service and validator.
func NewCouponHandler(svc CouponServiceInterface, v *validator.Validate) *CouponHandler {
	return &CouponHandler{service: svc, validator: v}
}

// couponError maps service errors to responses shared by every coupon route.
func (h *CouponHandler) couponError(c *fiber.Ctx, err error, code, action string) error {
	switch {
	case errors.Is(err, service.ErrCouponExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "coupon already exists"})
	case errors.Is(err, service.ErrCouponNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "coupon not found"})
	case errors.Is(err, service.ErrInvalidRequest):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	withRequest(c, log.Error().Err(err)).
		Str("coupon_code", code).
		Msg("failed to " + action)
	return internalServerError(c)
}

// CreateCoupon handles POST /api/admin/coupons.
func (h *CouponHandler) CreateCoupon(c *fiber.Ctx) error {
	var req model.CreateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Create(c.Context(), &req)
	if err != nil {
		return h.couponError(c, err, req.Code, "create coupon")
	}

	withRequest(c, log.Info()).
		Str("coupon_code", coupon.Code).
		Str("type", string(coupon.Type)).
		Str("value", coupon.Value.String()).
		Msg("coupon created")

	return c.Status(fiber.StatusCreated).JSON(coupon)
}

// ListCoupons handles GET /api/admin/coupons[?active=true].
func (h *CouponHandler) ListCoupons(c *fiber.Ctx) error {
	coupons, err := h.service.List(c.Context(), c.QueryBool("active", false))
	if err != nil {
		return h.couponError(c, err, "", "list coupons")
	}
	return c.JSON(coupons)
}

// GetCoupon handles GET /api/admin/coupons/:code.
func (h *CouponHandler) GetCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	coupon, err := h.service.Get(c.Context(), code)
	if err != nil {
		return h.couponError(c, err, code, "get coupon")
	}
	return c.JSON(coupon)
}

// UpdateCoupon handles PATCH /api/admin/coupons/:code.
func (h *CouponHandler) UpdateCoupon(c *fiber.Ctx) error {
	code := c.Params("code")

	var req model.UpdateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	coupon, err := h.service.Update(c.Context(), code, &req)
	if err != nil {
		return h.couponError(c, err, code, "update coupon")
	}

	withRequest(c, log.Info()).
		Str("coupon_code", coupon.Code).
		Bool("is_active", coupon.IsActive).
		Msg("coupon updated")

	return c.JSON(coupon)
}

// DeactivateCoupon handles DELETE /api/admin/coupons/:code. Coupons are
// never removed because orders reference them by code.
func (h *CouponHandler) DeactivateCoupon(c *fiber.Ctx) error {
	code := c.Params("code")
	if err := h.service.Deactivate(c.Context(), code); err != nil {
		return h.couponError(c, err, code, "deactivate coupon")
	}

	withRequest(c, log.Info()).
		Str("coupon_code", code).
		Msg("coupon deactivated")

	return c.Status(fiber.StatusNoContent).Send(nil)
}
