package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
)

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	GetAll(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	// Create assigns the product a new ID and returns the stored record.
	Create(ctx context.Context, product models.Product) (*models.Product, error)
	Update(ctx context.Context, product models.Product) error
	Delete(ctx context.Context, id int64) error
	// DecrementStock lowers stock by quantity, clamping at zero.
	DecrementStock(ctx context.Context, id int64, quantity int) (*models.Product, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create fails with ErrEmailTaken when the email is already present.
	Create(ctx context.Context, user models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Count(ctx context.Context) (int, error)
}

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order models.Order) error
	ListByUser(ctx context.Context, userID string) ([]models.Order, error)
	Count(ctx context.Context) (int, error)
}

// Tx exposes the collections inside a unit of work.
type Tx interface {
	Users() UserRepository
	Products() ProductRepository
	Orders() OrderRepository
}

// Store is the persistent store. Repositories obtained directly from the
// Store run each call on its own; RunAtomic groups calls so that either all
// of their writes become visible or none do.
type Store interface {
	Tx
	RunAtomic(ctx context.Context, fn func(tx Tx) error) error
	Close() error
}
