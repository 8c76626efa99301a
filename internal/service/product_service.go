package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Lixing-Zhang/storefront/internal/apperrors"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// ProductService handles business logic for products
type ProductService struct {
	store  repository.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewProductService creates a new product service
func NewProductService(store repository.Store, logger *slog.Logger) *ProductService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProductService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// ListProducts returns all available products
func (s *ProductService) ListProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.Products().GetAll(ctx)
	if err != nil {
		return nil, apperrors.Store("Error fetching products", err)
	}
	return products, nil
}

// GetProduct returns a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.Products().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperrors.NotFound("Product not found")
		}
		return nil, apperrors.Store("Error fetching product", err)
	}
	return product, nil
}

// SearchProducts returns products whose name or description contains query,
// ignoring case.
func (s *ProductService) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	products, err := s.store.Products().GetAll(ctx)
	if err != nil {
		return nil, apperrors.Store("Error searching products", err)
	}

	needle := strings.ToLower(query)
	matches := make([]models.Product, 0)
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Description), needle) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// ProductsByCategory returns products in category, ignoring case.
func (s *ProductService) ProductsByCategory(ctx context.Context, category string) ([]models.Product, error) {
	products, err := s.store.Products().GetAll(ctx)
	if err != nil {
		return nil, apperrors.Store("Error fetching products by category", err)
	}

	matches := make([]models.Product, 0)
	for _, p := range products {
		if strings.EqualFold(p.Category, category) {
			matches = append(matches, p)
		}
	}
	return matches, nil
}

// CreateProduct adds a product to the catalog. Name, description, price and
// category are required; image and stock default when absent.
func (s *ProductService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if blank(in.Name) || blank(in.Description) || in.Price == nil || blank(in.Category) {
		return nil, apperrors.Validation("Required fields missing")
	}

	createdAt := s.now().UTC()
	product := models.Product{
		Image:     models.DefaultProductImage,
		CreatedAt: &createdAt,
	}
	in.Apply(&product)
	if strings.TrimSpace(product.Image) == "" {
		product.Image = models.DefaultProductImage
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	created, err := s.store.Products().Create(ctx, product)
	if err != nil {
		return nil, apperrors.Store("Error creating product", err)
	}

	s.logger.Info("product created", "product_id", created.ID, "name", created.Name)
	return created, nil
}

// UpdateProduct merges the provided fields onto product id. The id itself
// never changes.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, in models.ProductInput) (*models.Product, error) {
	var updated models.Product
	err := s.store.RunAtomic(ctx, func(tx repository.Tx) error {
		current, err := tx.Products().GetByID(ctx, id)
		if err != nil {
			return err
		}
		in.Apply(current)
		current.ID = id
		if err := validateProduct(*current); err != nil {
			return err
		}
		if err := tx.Products().Update(ctx, *current); err != nil {
			return err
		}
		updated = *current
		return nil
	})
	if err != nil {
		return nil, productWriteError(err, "Error updating product")
	}

	s.logger.Info("product updated", "product_id", id)
	return &updated, nil
}

// DeleteProduct removes product id from the catalog.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.store.Products().Delete(ctx, id); err != nil {
		return productWriteError(err, "Error deleting product")
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

func productWriteError(err error, message string) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrProductNotFound):
		return apperrors.NotFound("Product not found")
	default:
		return apperrors.Store(message, err)
	}
}

func validateProduct(p models.Product) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return apperrors.Validation("Product name is required")
	case strings.TrimSpace(p.Category) == "":
		return apperrors.Validation("Product category is required")
	case p.Price < 0:
		return apperrors.Validation("Price must not be negative")
	case p.Stock < 0:
		return apperrors.Validation("Stock must not be negative")
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
