package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Lixing-Zhang/storefront/internal/metrics"
	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// Deps carries everything the router needs.
type Deps struct {
	Auth     *service.AuthService
	Products *service.ProductService
	Orders   *service.OrderService
	Logger   *slog.Logger

	// Metrics records per-route request counts. Nil disables recording.
	Metrics metrics.Recorder
	// MetricsHandler is mounted at /metrics when non-nil.
	MetricsHandler http.Handler
	// AuthLimiter throttles /api/auth when non-nil.
	AuthLimiter *middleware.RateLimiter

	CORSOrigins    []string
	RequireAdmin   bool
	RequestTimeout time.Duration
}

// NewRouter builds the HTTP API.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	rec := d.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	healthHandler := NewHealthHandler(log)
	productHandler := NewProductHandler(d.Products, log)
	authHandler := NewAuthHandler(d.Auth, log)
	userHandler := NewUserHandler(d.Auth, d.Orders, log)
	paymentHandler := NewPaymentHandler(d.Orders, log)
	adminHandler := NewAdminHandler(d.Products, log)

	compressor := chimiddleware.NewCompressor(5, "application/json", "text/plain")
	compressor.SetEncoder("br", func(w io.Writer, level int) io.Writer {
		return brotli.NewWriterLevel(w, level)
	})

	r := chi.NewRouter()

	// Apply middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Recoverer(log))
	r.Use(middleware.Metrics(rec))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Timeout(timeout))
	r.Use(compressor.Handler)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Route not found", log)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", log)
	})

	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	requireToken := middleware.BearerAuth(d.Auth, log)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.ServeHTTP)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/search/{query}", productHandler.SearchProducts)
			r.Get("/category/{category}", productHandler.ProductsByCategory)
			r.Get("/{id}", productHandler.GetProduct)
		})

		r.Route("/auth", func(r chi.Router) {
			if d.AuthLimiter != nil {
				r.Use(d.AuthLimiter.Middleware)
			}
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireToken)
			r.Get("/profile", userHandler.Profile)
			r.Get("/orders", userHandler.Orders)
		})

		r.With(requireToken).Post("/payments/process", paymentHandler.ProcessPayment)

		r.Route("/admin/products", func(r chi.Router) {
			r.Use(requireToken)
			r.Use(middleware.RequireAdmin(d.RequireAdmin))
			r.Post("/", adminHandler.CreateProduct)
			r.Put("/{id}", adminHandler.UpdateProduct)
			r.Delete("/{id}", adminHandler.DeleteProduct)
		})
	})

	return r
}
