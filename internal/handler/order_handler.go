package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/studymart-checkout/internal/middleware"
	"github.com/fairyhunter13/studymart-checkout/internal/model"
	"github.com/fairyhunter13/studymart-checkout/internal/service"
)

// OrderServiceInterface defines the interface for checkout and order reads.
type OrderServiceInterface interface {
	PlaceOrder(ctx context.Context, userID string, req *model.CreateOrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*model.Order, error)
	ListProducts(ctx context.Context) ([]*model.Product, error)
}

// OrderHandler handles the storefront product and order endpoints.
type OrderHandler struct {
	service   OrderServiceInterface
	validator *validator.Validate
}

// NewOrderHandler creates a new OrderHandler with the given service and validator.
func NewOrderHandler(svc OrderServiceInterface, v *validator.Validate) *OrderHandler {
	return &OrderHandler{service: svc, validator: v}
}

// ListProducts handles GET /api/products.
func (h *OrderHandler) ListProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.Context())
	if err != nil {
		withRequest(c, log.Error().Err(err)).Msg("failed to list products")
		return internalServerError(c)
	}
	return c.JSON(products)
}

// PlaceOrder handles POST /api/orders. Amounts are always recomputed from
// stored prices and the coupon is re-checked; the request carries no totals.
func (h *OrderHandler) PlaceOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	var req model.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": formatValidationError(err)})
	}

	order, err := h.service.PlaceOrder(c.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "product not found"})
		case errors.Is(err, service.ErrFormatUnavailable):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "format unavailable"})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
		}
		withRequest(c, log.Error().Err(err)).
			Str("user_id", userID).
			Int("items", len(req.Items)).
			Str("coupon_code", req.CouponCode).
			Msg("failed to place order")
		return internalServerError(c)
	}

	event := withRequest(c, log.Info()).
		Str("user_id", userID).
		Str("order_id", order.ID).
		Str("total_amount", order.TotalAmount.String()).
		Str("discount_amount", order.DiscountAmount.String()).
		Str("final_amount", order.FinalAmount.String())
	if order.CouponCode != nil {
		event = event.Str("coupon_code", *order.CouponCode)
	}
	event.Msg("order placed")

	return c.Status(fiber.StatusCreated).JSON(order)
}

// GetOrder handles GET /api/orders/:id. Other users' orders are reported as
// not found.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	orderID := c.Params("id")

	order, err := h.service.GetOrder(c.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "order not found"})
		}
		withRequest(c, log.Error().Err(err)).
			Str("user_id", userID).
			Str("order_id", orderID).
			Msg("failed to get order")
		return internalServerError(c)
	}
	return c.JSON(order)
}

// ListOrders handles GET /api/orders.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	orders, err := h.service.ListOrders(c.Context(), userID)
	if err != nil {
		withRequest(c, log.Error().Err(err)).Str("user_id", userID).Msg("failed to list orders")
		return internalServerError(c)
	}
	return c.JSON(orders)
}
