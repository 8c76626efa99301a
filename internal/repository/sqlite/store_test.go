package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/repository/sqlite"
	"github.com/Lixing-Zhang/storefront/internal/repository/storetest"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

func openStore(t *testing.T, path string) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), path, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return openStore(t, filepath.Join(t.TempDir(), "shop.db"))
	})
}

func TestReopenDoesNotReseed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "shop.db")

	first, err := sqlite.Open(ctx, path, logger.Discard())
	require.NoError(t, err)
	_, err = first.Products().DecrementStock(ctx, 5, 2)
	require.NoError(t, err)
	require.NoError(t, first.Products().Delete(ctx, 8))
	require.NoError(t, first.Close())

	second := openStore(t, path)

	products, err := second.Products().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 7)

	coffee, err := second.Products().GetByID(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 23, coffee.Stock)
}

func TestCreatedProductIDsFollowSeed(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, filepath.Join(t.TempDir(), "shop.db"))

	created, err := store.Products().Create(ctx, models.Product{
		Name:     "Desk Lamp",
		Price:    34.5,
		Category: "home",
		Image:    models.DefaultProductImage,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ", logger.Discard())
	assert.Error(t, err)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "shop.db")
	store := openStore(t, path)

	products, err := store.Products().GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, 8)
}
