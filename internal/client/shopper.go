package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lixing-Zhang/storefront/internal/cart"
	"github.com/Lixing-Zhang/storefront/internal/models"
)

var (
	ErrNotSignedIn = errors.New("please login to continue")
	ErrEmptyCart   = errors.New("your cart is empty")
)

// CheckoutDetails is what the shopper fills in at checkout.
type CheckoutDetails struct {
	Shipping   models.ShippingInfo
	CardNumber string
	ExpiryDate string
	CVV        string
	Currency   string
}

func (d CheckoutDetails) missing() bool {
	for _, v := range []string{
		d.Shipping.Name, d.Shipping.Email, d.Shipping.Address, d.Shipping.City, d.Shipping.Zip,
		d.CardNumber, d.ExpiryDate, d.CVV,
	} {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}

// Shopper combines the API client with the local session.
type Shopper struct {
	api     *Client
	session *cart.Session
}

func NewShopper(api *Client, session *cart.Session) *Shopper {
	return &Shopper{api: api, session: session}
}

func (s *Shopper) Session() *cart.Session {
	return s.session
}

func (s *Shopper) API() *Client {
	return s.api
}

// Register creates an account and signs in as it.
func (s *Shopper) Register(ctx context.Context, name, email, password string) (models.PublicUser, error) {
	resp, err := s.api.Register(ctx, models.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return models.PublicUser{}, err
	}
	return resp.User, s.session.SignIn(resp.User, resp.Token)
}

func (s *Shopper) Login(ctx context.Context, email, password string) (models.PublicUser, error) {
	resp, err := s.api.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return models.PublicUser{}, err
	}
	return resp.User, s.session.SignIn(resp.User, resp.Token)
}

func (s *Shopper) Logout() error {
	return s.session.SignOut()
}

// AddToCart fetches productID and adds one unit of it.
func (s *Shopper) AddToCart(ctx context.Context, productID int64) (*models.Product, error) {
	product, err := s.api.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.session.AddItem(*product); err != nil {
		return nil, err
	}
	return product, nil
}

// Orders lists the signed-in user's orders.
func (s *Shopper) Orders(ctx context.Context) ([]models.Order, error) {
	user, ok := s.session.User()
	if !ok {
		return nil, ErrNotSignedIn
	}
	return s.api.Orders(ctx, user.Token)
}

// Checkout pays for the cart. The cart is cleared only when the server
// accepts the payment.
func (s *Shopper) Checkout(ctx context.Context, details CheckoutDetails) (*models.PaymentResult, error) {
	user, ok := s.session.User()
	if !ok {
		return nil, ErrNotSignedIn
	}
	items := s.session.Items()
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	if details.missing() {
		return nil, errors.New("please fill in all required fields")
	}
	currency := details.Currency
	if currency == "" {
		currency = "usd"
	}

	result, err := s.api.ProcessPayment(ctx, user.Token, models.PaymentRequest{
		Amount:       s.session.Total().InexactFloat64(),
		Currency:     currency,
		CardNumber:   details.CardNumber,
		ExpiryDate:   details.ExpiryDate,
		CVV:          details.CVV,
		ShippingInfo: details.Shipping,
		Items:        items,
	})
	if err != nil {
		return nil, err
	}

	if err := s.session.ClearCart(); err != nil {
		return result, fmt.Errorf("order %s placed but the cart could not be cleared: %w", result.OrderID, err)
	}
	return result, nil
}
