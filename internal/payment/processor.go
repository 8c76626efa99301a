// Package payment fabricates payment confirmations. No card network is
// contacted; every charge succeeds.
package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/storefront/internal/models"
)

const (
	StatusSucceeded = "succeeded"
	intentPrefix    = "pi_demo_"
)

// Processor charges an amount and returns the resulting intent.
type Processor interface {
	Charge(ctx context.Context, amount decimal.Decimal, currency string) (models.PaymentIntent, error)
}

// Simulator is a Processor that always succeeds.
type Simulator struct {
	defaultCurrency string
	now             func() time.Time
}

// NewSimulator creates a simulated processor. An empty currency on a charge
// falls back to defaultCurrency.
func NewSimulator(defaultCurrency string) *Simulator {
	if defaultCurrency == "" {
		defaultCurrency = "usd"
	}
	return &Simulator{defaultCurrency: strings.ToLower(defaultCurrency), now: time.Now}
}

// Charge returns a succeeded intent for amount, expressed in cents.
func (s *Simulator) Charge(ctx context.Context, amount decimal.Decimal, currency string) (models.PaymentIntent, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentIntent{}, err
	}
	if amount.IsNegative() {
		return models.PaymentIntent{}, fmt.Errorf("amount must not be negative")
	}

	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.defaultCurrency
	}

	return models.PaymentIntent{
		ID:       intentPrefix + uuid.NewString(),
		Amount:   ToCents(amount),
		Currency: currency,
		Status:   StatusSucceeded,
		Created:  s.now().Unix(),
	}, nil
}

// ToCents rounds amount half away from zero to whole cents.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
