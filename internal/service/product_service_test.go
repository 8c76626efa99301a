package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront/internal/apperrors"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

func TestProductService_Reads(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	all, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 8)

	product, err := svc.GetProduct(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cotton T-Shirt", product.Name)

	_, err = svc.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_Search(t *testing.T) {
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "name substring", query: "shirt", want: []string{"Cotton T-Shirt"}},
		{name: "case insensitive", query: "SHIRT", want: []string{"Cotton T-Shirt"}},
		{name: "no match", query: "zzzz-nothing", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := svc.SearchProducts(context.Background(), tt.query)
			require.NoError(t, err)
			require.NotNil(t, products)

			names := make([]string, 0, len(products))
			for _, p := range products {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestProductService_SearchMatchesDescription(t *testing.T) {
	ctx := context.Background()
	store := repository.NewInMemoryStore()
	svc := NewProductService(store, logger.Discard())

	products, err := store.Products().GetAll(ctx)
	require.NoError(t, err)
	needle := products[0].Description[:8]

	found, err := svc.SearchProducts(ctx, needle)
	require.NoError(t, err)
	assert.NotEmpty(t, found)
}

func TestProductService_ByCategory(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	clothing, err := svc.ProductsByCategory(ctx, "Clothing")
	require.NoError(t, err)
	require.NotEmpty(t, clothing)
	for _, p := range clothing {
		assert.Equal(t, "clothing", p.Category)
	}

	none, err := svc.ProductsByCategory(ctx, "spaceships")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestProductService_Create(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	created, err := svc.CreateProduct(ctx, models.ProductInput{
		Name:        ptr("Desk Lamp"),
		Description: ptr("LED lamp"),
		Price:       ptr(34.5),
		Category:    ptr("home"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), created.ID)
	assert.Equal(t, models.DefaultProductImage, created.Image)
	assert.Equal(t, 0, created.Stock)
	assert.NotNil(t, created.CreatedAt)

	fetched, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Lamp", fetched.Name)
}

func TestProductService_CreateValidation(t *testing.T) {
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	tests := []struct {
		name string
		in   models.ProductInput
	}{
		{name: "missing name", in: models.ProductInput{Description: ptr("d"), Price: ptr(1.0), Category: ptr("c")}},
		{name: "missing price", in: models.ProductInput{Name: ptr("n"), Description: ptr("d"), Category: ptr("c")}},
		{name: "missing category", in: models.ProductInput{Name: ptr("n"), Description: ptr("d"), Price: ptr(1.0)}},
		{name: "negative price", in: models.ProductInput{Name: ptr("n"), Description: ptr("d"), Price: ptr(-1.0), Category: ptr("c")}},
		{name: "negative stock", in: models.ProductInput{Name: ptr("n"), Description: ptr("d"), Price: ptr(1.0), Category: ptr("c"), Stock: ptr(-2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tt.in)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestProductService_Update(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	updated, err := svc.UpdateProduct(ctx, 4, models.ProductInput{Price: ptr(59.99), Stock: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated.ID)
	assert.Equal(t, 59.99, updated.Price)
	assert.Equal(t, 5, updated.Stock)

	fetched, err := svc.GetProduct(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, updated.Name, fetched.Name)
	assert.Equal(t, 59.99, fetched.Price)

	_, err = svc.UpdateProduct(ctx, 4, models.ProductInput{Price: ptr(-1.0)})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.UpdateProduct(ctx, 999, models.ProductInput{Price: ptr(1.0)})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := NewProductService(repository.NewInMemoryStore(), logger.Discard())

	require.NoError(t, svc.DeleteProduct(ctx, 8))
	assert.ErrorIs(t, svc.DeleteProduct(ctx, 8), apperrors.ErrNotFound)

	_, err := svc.GetProduct(ctx, 8)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestProductService_StoreFailure(t *testing.T) {
	svc := NewProductService(failingStore(), logger.Discard())

	err := svc.DeleteProduct(context.Background(), 1)
	assert.ErrorIs(t, err, apperrors.ErrStore)
	assert.Equal(t, "Internal server error", apperrors.PublicMessage(err))
}
