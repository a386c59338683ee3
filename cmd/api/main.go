package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fairyhunter13/studymart-checkout/internal/config"
	"github.com/fairyhunter13/studymart-checkout/internal/discount"
	"github.com/fairyhunter13/studymart-checkout/internal/handler"
	"github.com/fairyhunter13/studymart-checkout/internal/repository"
	"github.com/fairyhunter13/studymart-checkout/internal/service"
	appvalidator "github.com/fairyhunter13/studymart-checkout/internal/validator"
	"github.com/fairyhunter13/studymart-checkout/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	initLogger(cfg)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.DB.DSN(), cfg.DB.MaxRetries)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.DB.ApplySchema {
		if err := database.ApplySchema(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("failed to apply database schema")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "StudyMart Checkout",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	validate := appvalidator.New()

	couponRepo := repository.NewCouponRepository(pool)
	engine := discount.NewEngine(couponRepo)

	couponService := service.NewCouponService(couponRepo)
	orderService := service.NewOrderService(pool, engine, service.OrderRepos{
		Products:      repository.NewProductRepository(pool),
		Orders:        repository.NewOrderRepository(pool),
		Referrals:     repository.NewReferralRepository(pool),
		Notifications: repository.NewNotificationRepository(pool),
	})
	accountService := service.NewAccountService(
		repository.NewReferralRepository(pool),
		repository.NewNotificationRepository(pool),
	)

	registerRoutes(app, handlers{
		health:  handler.NewHealthHandler(pool),
		quote:   handler.NewQuoteHandler(engine, validate),
		coupons: handler.NewCouponHandler(couponService, validate),
		orders:  handler.NewOrderHandler(orderService, validate),
		account: handler.NewAccountHandler(accountService),
	}, cfg)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close the pool only after in-flight orders have committed.
	pool.Close()
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Pretty {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
