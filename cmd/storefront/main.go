package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api"
	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/catalog"
	"github.com/aaravmahajanofficial/textile-storefront/internal/config"
	"github.com/aaravmahajanofficial/textile-storefront/internal/health"
	"github.com/aaravmahajanofficial/textile-storefront/internal/logger"
	"github.com/aaravmahajanofficial/textile-storefront/internal/ratelimit"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
	"github.com/aaravmahajanofficial/textile-storefront/internal/storage"
	"github.com/aaravmahajanofficial/textile-storefront/internal/telemetry"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/correios"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/sendgrid"
	"github.com/aaravmahajanofficial/textile-storefront/pkg/stripe"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {

	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env file", slog.String("error", err.Error()))
	}

	// Load config
	cfg := config.MustLoad()

	// Logger setup
	log := logger.New(logger.Options{Service: cfg.OTel.ServiceName, Env: cfg.Env, Level: cfg.LogLevel})

	shutdownTracing, err := telemetry.Setup(context.Background(), &cfg.OTel, cfg.Env)
	if err != nil {
		log.Error("❌ Error setting up tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Storage setup
	store, clients, err := openStore(cfg)
	if err != nil {
		log.Error("❌ Error opening the slot store", slog.String("driver", cfg.Storage.Driver), slog.String("error", err.Error()))
		os.Exit(1)
	}

	defer func() {
		if err := store.Close(); err != nil {
			log.Error("⚠️ Error closing slot store", slog.String("error", err.Error()))
		} else {
			log.Info("✅ Slot store closed")
		}
	}()

	products, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		log.Error("❌ Error loading the catalog", slog.String("path", cfg.Catalog.Path), slog.String("error", err.Error()))
		os.Exit(1)
	}

	authenticator, err := service.NewAuthenticator(cfg.Auth.Mode, store)
	if err != nil {
		log.Error("❌ Invalid auth mode", slog.String("mode", cfg.Auth.Mode), slog.String("error", err.Error()))
		os.Exit(1)
	}

	jwtKey := []byte(cfg.Security.JWTKey)
	redisClient := clients.redis

	sessions := service.NewSessionManager(store, authenticator, service.SessionOptions{
		IdleTTL:       cfg.Session.IdleTTL,
		SweepInterval: cfg.Session.SweepInterval,
		WriteTimeout:  cfg.Session.WriteTimeout,
		Logger:        log,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sessions.Run(sweepCtx)

	var payments stripe.Client
	if cfg.Stripe.APIKey != "" {
		payments = stripe.NewStripeClient(cfg.Stripe.APIKey)
	} else {
		log.Warn("Stripe API key not set, card payments disabled")
	}

	var mailer sendgrid.EmailService
	if cfg.SendGrid.APIKey != "" {
		mailer = sendgrid.NewEmailService(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	} else {
		log.Warn("SendGrid API key not set, order confirmations disabled")
	}

	quotes := correios.NewClient(cfg.Shipping.BaseURL, cfg.Shipping.Timeout, log)

	checkoutService := service.NewCheckoutService(quotes, payments, mailer, store, service.CheckoutOptions{
		OriginZip:    cfg.Shipping.OriginZip,
		Currency:     cfg.Stripe.Currency,
		WriteTimeout: cfg.Session.WriteTimeout,
		Logger:       log,
	})

	// Demo logins never fail, so throttling only guards real credentials.
	var limiter ratelimit.LoginLimiter
	if cfg.Auth.Mode == service.AuthModeLocal {
		if redisClient != nil {
			limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit)
		} else {
			limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit)
		}
	}

	accountService := service.NewAccountService(service.NewTokenIssuer(jwtKey, time.Duration(cfg.Security.JWTExpiryHours)*time.Hour), limiter)

	healthChecks, err := health.NewHealthHandler(cfg, &health.Endpoints{DB: clients.sqlite})
	if err != nil {
		log.Error("❌ Error creating health checks", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := api.NewRouter(api.Dependencies{
		Sessions: sessions,
		Catalog:  products,
		Accounts: accountService,
		Checkout: checkoutService,
		Auth:     middleware.NewAuthMiddleware(jwtKey),
		Health:   healthChecks.Handler(),
	})

	log.Info("storage initialized",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.Storage.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Int("products", products.Len()),
	)

	// Setup http server
	server := http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(router, "storefront"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("🚀 Server is starting...", slog.String("address", cfg.Addr))

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {

		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Error("❌ Failed to start server", slog.Any("error", err.Error()))
			done <- syscall.SIGTERM
		}
	}()

	<-done

	log.Warn("🛑 Shutdown signal received. Preparing to stop the server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("⚠️ Server shutdown encountered an issue", slog.String("error", err.Error()))
	} else {
		log.Info("✅ Server shut down gracefully. All connections closed.")
	}

	stopSweep()

	// Pending cart and favorites writes must land before the store closes.
	if err := sessions.Close(shutdownCtx); err != nil {
		log.Error("⚠️ Some sessions could not be flushed", slog.String("error", err.Error()))
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("⚠️ Error flushing traces", slog.String("error", err.Error()))
	}

}

// backends exposes the raw clients behind the slot store to the components
// that need them directly.
type backends struct {
	redis  *redis.Client
	sqlite *sql.DB
}

// openStore returns the slot store for the configured driver.
func openStore(cfg *config.Config) (storage.Store, backends, error) {

	switch cfg.Storage.Driver {
	case "", "memory":
		return storage.NewMemoryStore(), backends{}, nil

	case "redis":
		client, err := storage.NewRedisClient(&cfg.RedisConnect)
		if err != nil {
			return nil, backends{}, err
		}
		return storage.NewRedisStore(client, cfg.RedisConnect.TTL), backends{redis: client}, nil

	case "postgres":
		pg, err := storage.OpenPostgres(&cfg.Database)
		if err != nil {
			return nil, backends{}, err
		}
		return storage.NewSQLStore(pg), backends{}, nil

	case "sqlite":
		lite, err := storage.OpenSQLite(&cfg.SQLite)
		if err != nil {
			return nil, backends{}, err
		}
		return storage.NewSQLStore(lite), backends{sqlite: lite}, nil

	default:
		return nil, backends{}, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
