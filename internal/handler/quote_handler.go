package handler

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/studymart-checkout/internal/model"
)

// Headers sent on every response of the coupon validation callable, which is
// invoked cross-origin by the storefront.
var callableCORSHeaders = map[string]string{
	fiber.HeaderAccessControlAllowOrigin:  "*",
	fiber.HeaderAccessControlAllowHeaders: "authorization, x-client-info, apikey, content-type",
	fiber.HeaderAccessControlAllowMethods: "POST, OPTIONS",
}

// QuoterInterface prices a coupon against a subtotal. It never fails;
// rejections are reported inside the quote.
type QuoterInterface interface {
	Quote(ctx context.Context, code string, subtotal decimal.Decimal) *model.Quote
}

// QuoteHandler serves the coupon validation callable.
type QuoteHandler struct {
	quoter    QuoterInterface
	validator *validator.Validate
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(quoter QuoterInterface, v *validator.Validate) *QuoteHandler {
	return &QuoteHandler{quoter: quoter, validator: v}
}

// Preflight handles OPTIONS requests with an empty 200 response.
func (h *QuoteHandler) Preflight(c *fiber.Ctx) error {
	setCallableCORS(c)
	return c.Status(fiber.StatusOK).Send(nil)
}

// ValidateCoupon handles POST /functions/validate-coupon.
// Body: {"couponCode": "...", "subtotal": 1234.5}. Coupon rejections are a
// 200 with coupon_valid false; only unusable input or an internal failure
// produce an error status.
func (h *QuoteHandler) ValidateCoupon(c *fiber.Ctx) (err error) {
	setCallableCORS(c)

	defer func() {
		if r := recover(); r != nil {
			withRequest(c, log.Error()).
				Interface("panic", r).
				Msg("coupon validation failed")
			err = c.Status(fiber.StatusInternalServerError).JSON(model.QuoteErrorResponse{
				Error: "Internal server error",
			})
		}
	}()

	// The body is JSON whatever the Content-Type says.
	var req model.QuoteRequest
	if err := c.App().Config().JSONDecoder(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.QuoteErrorResponse{
			Error: "invalid request body",
		})
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(model.QuoteErrorResponse{
			Error: formatValidationError(err),
		})
	}

	quote := h.quoter.Quote(c.Context(), req.CouponCode, decimal.NewFromFloat(*req.Subtotal))

	withRequest(c, log.Debug()).
		Str("coupon_code", quote.CouponCode).
		Bool("coupon_valid", quote.CouponValid).
		Str("discount", quote.Discount.String()).
		Msg("coupon quoted")

	return c.JSON(quote.ToResponse())
}

func setCallableCORS(c *fiber.Ctx) {
	for k, v := range callableCORSHeaders {
		c.Set(k, v)
	}
}
