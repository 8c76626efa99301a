package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// UserHandler serves the authenticated caller's own resources.
type UserHandler struct {
	auth   *service.AuthService
	orders *service.OrderService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(auth *service.AuthService, orders *service.OrderService, logger *slog.Logger) *UserHandler {
	return &UserHandler{auth: auth, orders: orders, logger: logger}
}

// Profile handles GET /api/user/profile
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Access token required", h.logger)
		return
	}

	profile, err := h.auth.Profile(r.Context(), claims.UserID)
	if err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, profile, h.logger)
}

// Orders handles GET /api/user/orders
func (h *UserHandler) Orders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Access token required", h.logger)
		return
	}

	orders, err := h.orders.ListOrders(r.Context(), claims.UserID)
	if err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, orders, h.logger)
}
