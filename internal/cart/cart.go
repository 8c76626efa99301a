// Package cart is the shopper-side mirror of the cart and the signed-in user.
// Every mutation is written through to a Storage so state survives restarts.
package cart

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

// Cart is an ordered list of product snapshots with quantities. The zero
// value is an empty cart.
type Cart struct {
	items []models.CartItem
}

// New returns a cart holding items. Lines with a non-positive quantity are
// dropped.
func New(items []models.CartItem) *Cart {
	c := &Cart{items: make([]models.CartItem, 0, len(items))}
	for _, item := range items {
		if item.Quantity > 0 {
			c.items = append(c.items, item)
		}
	}
	return c
}

// AddItem adds one unit of product. An existing line is incremented; a new
// line keeps the snapshot taken now.
func (c *Cart) AddItem(product models.Product) {
	if i := c.index(product.ID); i >= 0 {
		c.items[i].Quantity++
		return
	}
	c.items = append(c.items, models.CartItem{Product: product, Quantity: 1})
}

// ChangeQuantity adds delta to the line for productID and removes the line
// when the result is zero or less. It reports whether the line existed.
func (c *Cart) ChangeQuantity(productID int64, delta int) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.items[i].Quantity += delta
	if c.items[i].Quantity <= 0 {
		c.items = slices.Delete(c.items, i, i+1)
	}
	return true
}

// Remove drops the line for productID.
func (c *Cart) Remove(productID int64) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.items = slices.Delete(c.items, i, i+1)
	return true
}

func (c *Cart) Clear() {
	c.items = c.items[:0]
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	return slices.Clone(c.items)
}

func (c *Cart) Len() int {
	return len(c.items)
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

// Total is Σ price × quantity, rounded to cents.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2)
}

func (c *Cart) index(productID int64) int {
	return slices.IndexFunc(c.items, func(item models.CartItem) bool {
		return item.ID == productID
	})
}
