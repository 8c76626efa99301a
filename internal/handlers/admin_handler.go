package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/service"
)

// AdminHandler manages the catalog.
type AdminHandler struct {
	products *service.ProductService
	logger   *slog.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(products *service.ProductService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{products: products, logger: logger}
}

// CreateProduct handles POST /api/admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	product, err := h.products.CreateProduct(r.Context(), in)
	if err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, models.ProductResponse{
		Message: "Product created successfully",
		Product: *product,
	}, h.logger)
}

// UpdateProduct handles PUT /api/admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), id, in)
	if err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, models.ProductResponse{
		Message: "Product updated successfully",
		Product: *product,
	}, h.logger)
}

// DeleteProduct handles DELETE /api/admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		WriteAppError(w, r, err, h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, MessageResponse{Message: "Product deleted successfully"}, h.logger)
}
