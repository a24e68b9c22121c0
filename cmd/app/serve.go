package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/spf13/cobra"

	"github.com/abayahaven/marketplace-backend/internal/cache"
	"github.com/abayahaven/marketplace-backend/internal/cart"
	"github.com/abayahaven/marketplace-backend/internal/category"
	"github.com/abayahaven/marketplace-backend/internal/config"
	"github.com/abayahaven/marketplace-backend/internal/database"
	"github.com/abayahaven/marketplace-backend/internal/notify"
	"github.com/abayahaven/marketplace-backend/internal/order"
	"github.com/abayahaven/marketplace-backend/internal/payment"
	"github.com/abayahaven/marketplace-backend/internal/product"
	"github.com/abayahaven/marketplace-backend/internal/report"
	"github.com/abayahaven/marketplace-backend/internal/upload"
	"github.com/abayahaven/marketplace-backend/internal/user"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	log := newLogger(cfg.LogLevel)

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	store, closeCache := newCache(ctx, cfg, log)
	defer closeCache()

	notifier, err := notify.New(cfg, log)
	if err != nil {
		return err
	}

	app := newApp(db, cfg, store, newPaymentProvider(cfg, log), notifier)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr)
		errCh <- app.Listen(cfg.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newCache(ctx context.Context, cfg config.Config, log *slog.Logger) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		return cache.NewInMemoryCache(), func() {}
	}
	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, "abaya-haven:")
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", "err", err)
		return cache.NewInMemoryCache(), func() {}
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Warn("failed to close redis", "err", err)
		}
	}
}

func newPaymentProvider(cfg config.Config, log *slog.Logger) payment.Provider {
	if cfg.StripeSecretKey == "" {
		log.Warn("STRIPE_SECRET_KEY is not set, online payments are disabled")
		return payment.Unavailable{}
	}
	return payment.NewStripeProvider(cfg.StripeSecretKey)
}

// invalidators fans a stock change out to every cache that depends on it.
type invalidators []order.CatalogCache

func (iv invalidators) Invalidate(ctx context.Context) {
	for _, c := range iv {
		c.Invalidate(ctx)
	}
}

func newApp(db *sql.DB, cfg config.Config, store cache.Cache, provider payment.Provider, notifier notify.Notifier) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.MaxUploadBytes + 1024*1024,
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Static("/uploads", cfg.UploadDir)

	tokens := user.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	userHandler := user.NewHandler(user.NewService(user.NewPostgresRepository(db)), tokens)

	productService := product.NewService(product.NewPostgresRepository(db), store, cfg.CacheTTL)
	productHandler := product.NewHandler(productService, upload.NewStore(cfg.UploadDir, int64(cfg.MaxUploadBytes)))

	reportService := report.NewService(report.NewPostgresRepository(db), store, cfg.CacheTTL, cfg.Currency)
	reportHandler := report.NewHandler(reportService)

	orderService := order.NewService(order.NewPostgresStore(db), provider, notifier,
		invalidators{productService, reportService}, cfg.Currency)
	orderHandler := order.NewHandler(orderService)

	categoryHandler := category.NewHandler(category.NewService(category.NewPostgresRepository(db), store, cfg.CacheTTL))
	cartHandler := cart.NewHandler(cart.NewService(cart.NewPostgresRepository(db)))
	contactHandler := notify.NewHandler(notifier)

	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	userHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	contactHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey:    []byte(cfg.JWTSecret),
		SigningMethod: "HS256",
		ErrorHandler:  jwtError,
	}))

	userHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	cartHandler.RegisterProtectedRoutes(app)
	orderHandler.RegisterProtectedRoutes(app)
	reportHandler.RegisterProtectedRoutes(app)

	admin := app.Group("/api/admin", user.RequireAdmin)
	userHandler.RegisterAdminRoutes(admin)
	productHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	reportHandler.RegisterAdminRoutes(admin)

	return app
}

func jwtError(c *fiber.Ctx, _ error) error {
	if c.Get(fiber.HeaderAuthorization) == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "No token, authorization denied"})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Token is not valid"})
}

// errorHandler keeps unmatched routes and framework errors in the JSON
// {"message"} shape every handler uses.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	} else {
		slog.ErrorContext(c.UserContext(), "unhandled error", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(code).JSON(fiber.Map{"message": message})
}
