package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/fairyhunter13/studymart-checkout/internal/config"
	"github.com/fairyhunter13/studymart-checkout/internal/handler"
	"github.com/fairyhunter13/studymart-checkout/internal/middleware"
)

// handlers groups every HTTP handler mounted by registerRoutes.
type handlers struct {
	health  *handler.HealthHandler
	quote   *handler.QuoteHandler
	coupons *handler.CouponHandler
	orders  *handler.OrderHandler
	account *handler.AccountHandler
}

// registerRoutes mounts the public callable, the storefront API and the
// back-office coupon API on app.
func registerRoutes(app *fiber.App, h handlers, cfg *config.Config) {
	app.Get("/health", h.health.Check)

	// The callable sets its own permissive CORS headers.
	app.Options("/functions/validate-coupon", h.quote.Preflight)
	app.Post("/functions/validate-coupon", h.quote.ValidateCoupon)

	api := app.Group("/api", cors.New(cors.Config{
		AllowOrigins: cfg.CORS.Origins(),
		AllowHeaders: "Authorization, Content-Type",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
	}))
	api.Get("/products", h.orders.ListProducts)

	auth := middleware.Authenticate(cfg.Auth.JWTSecret)

	orders := api.Group("/orders", auth)
	orders.Post("/", h.orders.PlaceOrder)
	orders.Get("/", h.orders.ListOrders)
	orders.Get("/:id", h.orders.GetOrder)

	api.Get("/referrals", auth, h.account.ListReferrals)
	api.Get("/notifications", auth, h.account.ListNotifications)

	admin := api.Group("/admin/coupons", auth, middleware.RequireRole(cfg.Auth.AdminRole))
	admin.Post("/", h.coupons.CreateCoupon)
	admin.Get("/", h.coupons.ListCoupons)
	admin.Get("/:code", h.coupons.GetCoupon)
	admin.Patch("/:code", h.coupons.UpdateCoupon)
	admin.Delete("/:code", h.coupons.DeactivateCoupon)
}
