// Package storetest holds the behaviour every repository.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// OpenFunc opens a fresh store holding only the seed catalog.
type OpenFunc func(t *testing.T) repository.Store

// Run executes the conformance suite against stores produced by open.
func Run(t *testing.T, open OpenFunc) {
	t.Run("seeded catalog", func(t *testing.T) { testSeededCatalog(t, open(t)) })
	t.Run("product crud", func(t *testing.T) { testProductCRUD(t, open(t)) })
	t.Run("decrement stock clamps at zero", func(t *testing.T) { testDecrementStock(t, open(t)) })
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("orders", func(t *testing.T) { testOrders(t, open(t)) })
	t.Run("atomic commit", func(t *testing.T) { testAtomicCommit(t, open(t)) })
	t.Run("atomic rollback", func(t *testing.T) { testAtomicRollback(t, open(t)) })
	t.Run("concurrent decrements", func(t *testing.T) { testConcurrentDecrements(t, open(t)) })
}

// NewUser builds a user record with a fresh ID.
func NewUser(email string) models.User {
	return models.User{
		ID:           uuid.NewString(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$04$notarealhashnotarealhashnotarealhashnotarealhashnotr",
		Role:         models.RoleCustomer,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

// NewOrder builds an order for userID buying quantity units of product.
func NewOrder(userID string, product models.Product, quantity int) models.Order {
	return models.Order{
		ID:     uuid.NewString(),
		UserID: userID,
		Items: []models.CartItem{
			{Product: product, Quantity: quantity},
		},
		Total:           product.Price * float64(quantity),
		Currency:        "usd",
		PaymentIntentID: "pi_demo_" + uuid.NewString(),
		ShippingInfo: models.ShippingInfo{
			Name:    "Ada Lovelace",
			Email:   "ada@example.com",
			Address: "12 Analytical Row",
			City:    "London",
			Zip:     "N1 9GU",
		},
		Status:    models.OrderStatusConfirmed,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func testSeededCatalog(t *testing.T, store repository.Store) {
	ctx := context.Background()

	products, err := store.Products().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, len(repository.SeedProducts()))

	shirt, err := store.Products().GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cotton T-Shirt", shirt.Name)
	assert.Equal(t, "clothing", shirt.Category)
	assert.Equal(t, 29.99, shirt.Price)
	assert.Equal(t, 100, shirt.Stock)

	_, err = store.Products().GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func testProductCRUD(t *testing.T, store repository.Store) {
	ctx := context.Background()
	createdAt := time.Now().UTC().Truncate(time.Millisecond)

	created, err := store.Products().Create(ctx, models.Product{
		Name:        "Desk Lamp",
		Description: "LED lamp with adjustable arm",
		Price:       34.5,
		Category:    "home",
		Image:       models.DefaultProductImage,
		Stock:       12,
		CreatedAt:   &createdAt,
	})
	require.NoError(t, err)
	assert.Greater(t, created.ID, int64(8))

	fetched, err := store.Products().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", fetched.Name)
	require.NotNil(t, fetched.CreatedAt)
	assert.WithinDuration(t, createdAt, *fetched.CreatedAt, time.Millisecond)

	fetched.Price = 30
	fetched.Stock = 3
	require.NoError(t, store.Products().Update(ctx, *fetched))

	updated, err := store.Products().GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Price)
	assert.Equal(t, 3, updated.Stock)

	require.NoError(t, store.Products().Delete(ctx, created.ID))
	_, err = store.Products().GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)

	assert.ErrorIs(t, store.Products().Delete(ctx, created.ID), repository.ErrProductNotFound)
	assert.ErrorIs(t, store.Products().Update(ctx, models.Product{ID: 4242, Name: "ghost"}), repository.ErrProductNotFound)
}

func testDecrementStock(t *testing.T, store repository.Store) {
	ctx := context.Background()

	product, err := store.Products().DecrementStock(ctx, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 97, product.Stock)

	product, err = store.Products().DecrementStock(ctx, 3, 1000)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)

	stored, err := store.Products().GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Stock)

	_, err = store.Products().DecrementStock(ctx, 999, 1)
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func testUsers(t *testing.T, store repository.Store) {
	ctx := context.Background()
	user := NewUser("grace@example.com")

	require.NoError(t, store.Users().Create(ctx, user))

	byEmail, err := store.Users().GetByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, user.PasswordHash, byEmail.PasswordHash)
	assert.Equal(t, models.RoleCustomer, byEmail.Role)

	byID, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", byID.Email)
	assert.WithinDuration(t, user.CreatedAt, byID.CreatedAt, time.Millisecond)

	dup := NewUser("grace@example.com")
	assert.ErrorIs(t, store.Users().Create(ctx, dup), repository.ErrEmailTaken)

	n, err := store.Users().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = store.Users().GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	_, err = store.Users().GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
}

func testOrders(t *testing.T, store repository.Store) {
	ctx := context.Background()

	product, err := store.Products().GetByID(ctx, 1)
	require.NoError(t, err)

	first := NewOrder("user-1", *product, 2)
	second := NewOrder("user-1", *product, 1)
	other := NewOrder("user-2", *product, 5)
	for _, o := range []models.Order{first, second, other} {
		require.NoError(t, store.Orders().Create(ctx, o))
	}

	orders, err := store.Orders().ListByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	ids := []string{orders[0].ID, orders[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)

	var got models.Order
	for _, o := range orders {
		if o.ID == first.ID {
			got = o
		}
	}
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), got.Items[0].ID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, first.ShippingInfo, got.ShippingInfo)
	assert.Equal(t, first.PaymentIntentID, got.PaymentIntentID)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
	assert.InDelta(t, first.Total, got.Total, 0.0001)

	none, err := store.Orders().ListByUser(ctx, "user-3")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	n, err := store.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testAtomicCommit(t *testing.T, store repository.Store) {
	ctx := context.Background()

	err := store.RunAtomic(ctx, func(tx repository.Tx) error {
		product, err := tx.Products().GetByID(ctx, 2)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, NewOrder("user-1", *product, 4)); err != nil {
			return err
		}
		_, err = tx.Products().DecrementStock(ctx, 2, 4)
		return err
	})
	require.NoError(t, err)

	product, err := store.Products().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 26, product.Stock)

	n, err := store.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testAtomicRollback(t *testing.T, store repository.Store) {
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := store.RunAtomic(ctx, func(tx repository.Tx) error {
		product, err := tx.Products().GetByID(ctx, 2)
		if err != nil {
			return err
		}
		if err := tx.Orders().Create(ctx, NewOrder("user-1", *product, 4)); err != nil {
			return err
		}
		if _, err := tx.Products().DecrementStock(ctx, 2, 4); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	product, err := store.Products().GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 30, product.Stock)

	n, err := store.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func testConcurrentDecrements(t *testing.T, store repository.Store) {
	ctx := context.Background()
	const workers = 20

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.RunAtomic(ctx, func(tx repository.Tx) error {
				product, err := tx.Products().GetByID(ctx, 7)
				if err != nil {
					return err
				}
				if err := tx.Orders().Create(ctx, NewOrder("user-1", *product, 1)); err != nil {
					return err
				}
				_, err = tx.Products().DecrementStock(ctx, 7, 1)
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	product, err := store.Products().GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 60-workers, product.Stock)

	n, err := store.Orders().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, workers, n)
}
