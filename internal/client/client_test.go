package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lixing-Zhang/storefront/internal/auth"
	"github.com/Lixing-Zhang/storefront/internal/cart"
	"github.com/Lixing-Zhang/storefront/internal/client"
	"github.com/Lixing-Zhang/storefront/internal/handlers"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
	"github.com/Lixing-Zhang/storefront/internal/service"
	"github.com/Lixing-Zhang/storefront/pkg/logger"
)

// newAPI starts a storefront server on an in-memory store.
func newAPI(t *testing.T) (*client.Client, *repository.SnapshotStore) {
	t.Helper()
	log := logger.Discard()
	store := repository.NewInMemoryStore()

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenManager("client-test-secret", time.Hour)
	require.NoError(t, err)

	router := handlers.NewRouter(handlers.Deps{
		Auth:     service.NewAuthService(store.Users(), hasher, tokens, service.AuthOptions{Logger: log}),
		Products: service.NewProductService(store, log),
		Orders:   service.NewOrderService(store, payment.NewSimulator("usd"), service.OrderOptions{Logger: log}),
		Logger:   log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return client.New(client.Config{BaseURL: srv.URL + "/"}), store
}

func checkoutDetails() client.CheckoutDetails {
	return client.CheckoutDetails{
		Shipping: models.ShippingInfo{
			Name:    "Grace Hopper",
			Email:   "grace@example.com",
			Address: "1 Navy Yard",
			City:    "Arlington",
			Zip:     "22202",
		},
		CardNumber: "4242424242424242",
		ExpiryDate: "12/30",
		CVV:        "123",
	}
}

func TestClient_Catalog(t *testing.T) {
	api, _ := newAPI(t)
	ctx := context.Background()

	products, err := api.Products(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 8)

	product, err := api.Product(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Cotton T-Shirt", product.Name)

	found, err := api.Search(ctx, "t-shirt")
	require.NoError(t, err)
	require.Len(t, found, 1)

	none, err := api.Search(ctx, "submarine")
	require.NoError(t, err)
	assert.Empty(t, none)

	home, err := api.Category(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, home, 2)

	_, err = api.Product(ctx, 404)
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "Product not found")
}

func TestClient_AuthErrors(t *testing.T) {
	api, _ := newAPI(t)
	ctx := context.Background()

	_, err := api.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "x"})
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))

	_, err = api.Profile(ctx, "")
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))

	_, err = api.Profile(ctx, "bogus")
	assert.True(t, client.IsStatus(err, http.StatusForbidden))
}

func TestShopper_Flow(t *testing.T) {
	api, store := newAPI(t)
	ctx := context.Background()

	session, err := cart.Open(cart.NewMemoryStorage())
	require.NoError(t, err)
	shopper := client.NewShopper(api, session)

	// Checkout requires a user.
	_, err = shopper.Checkout(ctx, checkoutDetails())
	assert.ErrorIs(t, err, client.ErrNotSignedIn)

	user, err := shopper.Register(ctx, "Grace Hopper", "grace@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)

	// ...and a non-empty cart.
	_, err = shopper.Checkout(ctx, checkoutDetails())
	assert.ErrorIs(t, err, client.ErrEmptyCart)

	_, err = shopper.AddToCart(ctx, 3)
	require.NoError(t, err)
	_, err = shopper.AddToCart(ctx, 3)
	require.NoError(t, err)
	_, err = shopper.AddToCart(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, session.Count())

	result, err := shopper.Checkout(ctx, checkoutDetails())
	require.NoError(t, err)
	assert.NotEmpty(t, result.OrderID)
	assert.InDelta(t, 29.99*2+39.99, result.Total, 1e-9)
	assert.Empty(t, session.Items())

	tshirt, err := store.Products().GetByID(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 98, tshirt.Stock)

	orders, err := shopper.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, result.OrderID, orders[0].ID)
}

func TestShopper_FailedCheckoutKeepsCart(t *testing.T) {
	api, _ := newAPI(t)
	ctx := context.Background()

	session, err := cart.Open(cart.NewMemoryStorage())
	require.NoError(t, err)
	shopper := client.NewShopper(api, session)

	_, err = shopper.Register(ctx, "Grace Hopper", "grace@example.com", "pw")
	require.NoError(t, err)

	// A product the server does not know about is rejected at validation.
	require.NoError(t, session.AddItem(models.Product{ID: 0, Name: "Ghost", Price: 1}))

	_, err = shopper.Checkout(ctx, checkoutDetails())
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusBadRequest))
	assert.Equal(t, 1, session.Count())
}

func TestShopper_LoginAndLogout(t *testing.T) {
	api, _ := newAPI(t)
	ctx := context.Background()

	session, err := cart.Open(cart.NewMemoryStorage())
	require.NoError(t, err)
	shopper := client.NewShopper(api, session)

	_, err = shopper.Register(ctx, "Grace Hopper", "grace@example.com", "pw")
	require.NoError(t, err)
	require.NoError(t, shopper.Logout())

	_, err = shopper.Login(ctx, "grace@example.com", "wrong")
	assert.True(t, client.IsStatus(err, http.StatusUnauthorized))
	_, ok := session.User()
	assert.False(t, ok)

	_, err = shopper.Login(ctx, "GRACE@example.com", "pw")
	require.NoError(t, err)
	user, ok := session.User()
	require.True(t, ok)
	assert.NotEmpty(t, user.Token)
}
