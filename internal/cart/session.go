package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

// Storage keys.
const (
	UserKey = "currentUser"
	CartKey = "cart"
)

// User is the signed-in account and its session token.
type User struct {
	models.PublicUser
	Token string `json:"token"`
}

// Session holds the current user and cart, persisting both on every change.
type Session struct {
	mu      sync.Mutex
	storage Storage
	user    *User
	cart    *Cart
}

// Open restores the session saved in storage.
func Open(storage Storage) (*Session, error) {
	s := &Session{storage: storage}

	var user User
	found, err := storage.Load(UserKey, &user)
	if err != nil {
		return nil, fmt.Errorf("restore user: %w", err)
	}
	if found && user.Token != "" {
		s.user = &user
	}

	var items []models.CartItem
	if _, err := storage.Load(CartKey, &items); err != nil {
		return nil, fmt.Errorf("restore cart: %w", err)
	}
	s.cart = New(items)

	return s, nil
}

// User returns the signed-in user, or false when signed out.
func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// SignIn records the user returned by login or registration.
func (s *Session) SignIn(user models.PublicUser, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &User{PublicUser: user, Token: token}
	if err := s.storage.Save(UserKey, u); err != nil {
		return err
	}
	s.user = u
	return nil
}

// SignOut forgets the user. The cart is kept.
func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Delete(UserKey); err != nil {
		return err
	}
	s.user = nil
	return nil
}

func (s *Session) AddItem(product models.Product) error {
	return s.mutate(func(c *Cart) { c.AddItem(product) })
}

// ChangeQuantity adjusts a line, removing it at zero. Unknown ids are ignored.
func (s *Session) ChangeQuantity(productID int64, delta int) error {
	return s.mutate(func(c *Cart) { c.ChangeQuantity(productID, delta) })
}

func (s *Session) RemoveItem(productID int64) error {
	return s.mutate(func(c *Cart) { c.Remove(productID) })
}

func (s *Session) ClearCart() error {
	return s.mutate(func(c *Cart) { c.Clear() })
}

func (s *Session) Items() []models.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Items()
}

func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count()
}

func (s *Session) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

// mutate applies fn to a copy of the cart and keeps it only once saved.
func (s *Session) mutate(fn func(c *Cart)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := New(s.cart.Items())
	fn(next)
	if err := s.storage.Save(CartKey, next.Items()); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.cart = next
	return nil
}
