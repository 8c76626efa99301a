package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/middleware"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// PaymentHandler handles checkout requests
type PaymentHandler struct {
	orderService *service.OrderService
	log          *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(orderService *service.OrderService, log *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		orderService: orderService,
		log:          log,
	}
}

// ProcessPayment handles POST /api/payments/process
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, "Access token required", h.log)
		return
	}

	var req models.PaymentRequest

	// Parse request body
	if err := decodeJSON(w, r, &req); err != nil {
		h.log.Warn("failed to decode payment request", "error", err)
		WriteAppError(w, r, err, h.log)
		return
	}

	result, err := h.orderService.ProcessPayment(r.Context(), claims.UserID, req)
	if err != nil {
		WriteAppError(w, r, err, h.log)
		return
	}

	WriteJSON(w, http.StatusOK, result, h.log)
}
