package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Lixing-Zhang/storefront/internal/auth"
	"github.com/Lixing-Zhang/storefront/internal/config"
	"github.com/Lixing-Zhang/storefront/internal/handlers"
	"github.com/Lixing-Zhang/storefront/internal/metrics"
	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/repository/jsonfile"
	"github.com/Lixing-Zhang/storefront/internal/repository/postgres"
	"github.com/Lixing-Zhang/storefront/internal/repository/sqlite"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.LogLevel)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting storefront api server",
		"port", cfg.Server.Port,
		"host", cfg.Server.Host,
		"log_level", cfg.LogLevel,
		"store_driver", cfg.Store.Driver,
		"pricing_mode", cfg.Checkout.PricingMode,
	)
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET is not set; using the development default")
	}
	if !cfg.Auth.RequireAdmin {
		log.Warn("admin endpoints accept any authenticated user; set REQUIRE_ADMIN=true to restrict them")
	}

	ctx := context.Background()

	// Initialize storage
	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	}()

	// Metrics
	var (
		recorder       metrics.Recorder = metrics.Nop{}
		metricsHandler http.Handler
	)
	if cfg.HTTP.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewCollector(reg)
		metricsHandler = metrics.Handler(reg)
	}

	// Initialize services
	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}
	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}
	pricing, ok := service.ParsePricingMode(cfg.Checkout.PricingMode)
	if !ok {
		return fmt.Errorf("invalid pricing mode %q", cfg.Checkout.PricingMode)
	}

	authService := service.NewAuthService(store.Users(), hasher, tokens, service.AuthOptions{
		AdminEmails: cfg.Auth.AdminEmails,
		Metrics:     recorder,
		Logger:      log,
	})
	productService := service.NewProductService(store, log)
	orderService := service.NewOrderService(store, payment.NewSimulator(cfg.Checkout.DefaultCurrency), service.OrderOptions{
		Pricing: pricing,
		Metrics: recorder,
		Logger:  log,
	})

	var authLimiter *middleware.RateLimiter
	if cfg.HTTP.AuthRatePerMinute > 0 {
		authLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
			PerMinute: cfg.HTTP.AuthRatePerMinute,
			Burst:     cfg.HTTP.AuthRateBurst,
		}, log)
		defer authLimiter.Stop()
	}

	// Create router
	router := handlers.NewRouter(handlers.Deps{
		Auth:           authService,
		Products:       productService,
		Orders:         orderService,
		Logger:         log,
		Metrics:        recorder,
		MetricsHandler: metricsHandler,
		AuthLimiter:    authLimiter,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequireAdmin:   cfg.Auth.RequireAdmin,
	})

	// Create HTTP server
	addr := cfg.Addr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case sig := <-quit:
		log.Info("shutting down server...", "signal", sig.String())
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

// openStore opens the backend selected by STORE_DRIVER. Every backend seeds
// the default catalog the first time it starts.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (repository.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverJSON:
		return jsonfile.Open(ctx, cfg.Store.DataDir, log)
	case config.DriverSQLite:
		return sqlite.Open(ctx, cfg.Store.SQLitePath, log)
	case config.DriverPostgres:
		return postgres.Open(ctx, cfg.Store.DatabaseURL, log)
	case config.DriverMemory:
		log.Warn("using the in-memory store; data is lost on restart")
		return repository.NewInMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
