package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lixing-Zhang/storefront/internal/apperrors"
	"github.com/Lixing-Zhang/storefront/internal/metrics"
	"github.com/Lixing-Zhang/storefront/internal/models"
	"github.com/Lixing-Zhang/storefront/internal/payment"
	"github.com/Lixing-Zhang/storefront/internal/repository"
)

// PricingMode selects where checkout takes unit prices from.
type PricingMode string

const (
	// PricingClient totals the prices submitted with the cart.
	PricingClient PricingMode = "client"
	// PricingCatalog re-prices every line from the stored catalog.
	PricingCatalog PricingMode = "catalog"
)

// ParsePricingMode parses a PRICING_MODE value.
func ParsePricingMode(s string) (PricingMode, bool) {
	switch PricingMode(strings.ToLower(strings.TrimSpace(s))) {
	case PricingClient, "":
		return PricingClient, true
	case PricingCatalog:
		return PricingCatalog, true
	}
	return "", false
}

// OrderService handles checkout and order history
type OrderService struct {
	store     repository.Store
	processor payment.Processor
	pricing   PricingMode
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// OrderOptions configures an OrderService.
type OrderOptions struct {
	Pricing PricingMode
	Metrics metrics.Recorder
	Logger  *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store repository.Store, processor payment.Processor, opts OrderOptions) *OrderService {
	if opts.Pricing == "" {
		opts.Pricing = PricingClient
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &OrderService{
		store:     store,
		processor: processor,
		pricing:   opts.Pricing,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       time.Now,
	}
}

// ProcessPayment validates the cart, charges the total and records the order.
// The order insert and the stock decrements commit together or not at all.
// Lines whose product no longer exists are skipped during the stock update
// and reported in the result.
func (s *OrderService) ProcessPayment(ctx context.Context, userID string, req models.PaymentRequest) (*models.PaymentResult, error) {
	if err := validatePayment(req); err != nil {
		s.metrics.RecordCheckoutFailure("validation")
		return nil, err
	}

	var (
		order   models.Order
		intent  models.PaymentIntent
		total   decimal.Decimal
		skipped []int64
	)
	err := s.store.RunAtomic(ctx, func(tx repository.Tx) error {
		items, err := s.priceItems(ctx, tx, req.Items)
		if err != nil {
			return err
		}
		total = Total(items)

		intent, err = s.processor.Charge(ctx, total, req.Currency)
		if err != nil {
			return &apperrors.Error{Kind: apperrors.KindInternal, Message: "Error processing payment", Cause: err}
		}

		order = models.Order{
			ID:              uuid.NewString(),
			UserID:          userID,
			Items:           items,
			Total:           total.InexactFloat64(),
			Currency:        intent.Currency,
			PaymentIntentID: intent.ID,
			ShippingInfo:    trimShipping(req.ShippingInfo),
			Status:          models.OrderStatusConfirmed,
			CreatedAt:       s.now().UTC(),
		}
		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		for _, item := range items {
			if _, err := tx.Products().DecrementStock(ctx, item.ID, item.Quantity); err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					skipped = append(skipped, item.ID)
					continue
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			s.metrics.RecordCheckoutFailure(appErr.Kind.String())
			return nil, appErr
		}
		s.metrics.RecordCheckoutFailure("store")
		return nil, apperrors.Store("Error processing payment", err)
	}

	if len(skipped) > 0 {
		s.logger.Warn("order lines skipped during stock update",
			"order_id", order.ID,
			"product_ids", skipped,
		)
		s.metrics.RecordStockSkipped(len(skipped))
	}
	if submitted := decimal.NewFromFloat(req.Amount); submitted.Sub(total).Abs().GreaterThanOrEqual(oneCent) {
		s.logger.Warn("submitted amount differs from computed total",
			"order_id", order.ID,
			"submitted", submitted.StringFixed(2),
			"computed", total.StringFixed(2),
		)
	}

	s.metrics.RecordOrder(unitCount(order.Items), intent.Amount)
	s.logger.Info("order created",
		"order_id", order.ID,
		"user_id", userID,
		"total", total.StringFixed(2),
		"payment_intent_id", intent.ID,
	)

	return &models.PaymentResult{
		Message:           "Payment processed successfully",
		OrderID:           order.ID,
		Total:             order.Total,
		PaymentIntent:     intent,
		SkippedProductIDs: skipped,
	}, nil
}

// ListOrders returns the orders placed by userID, oldest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Store("Error fetching orders", err)
	}
	return orders, nil
}

// priceItems returns the order lines with the unit price the order is charged
// at. In catalog mode each line is replaced with the stored product.
func (s *OrderService) priceItems(ctx context.Context, tx repository.Tx, items []models.CartItem) ([]models.CartItem, error) {
	priced := make([]models.CartItem, 0, len(items))
	for _, item := range items {
		if s.pricing == PricingCatalog {
			product, err := tx.Products().GetByID(ctx, item.ID)
			if err != nil {
				if errors.Is(err, repository.ErrProductNotFound) {
					return nil, apperrors.NotFound("Product not found")
				}
				return nil, err
			}
			item.Product = *product
		}
		priced = append(priced, item)
	}
	return priced, nil
}

var oneCent = decimal.New(1, -2)

// Total sums price × quantity over items, rounded to cents.
func Total(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2)
}

func unitCount(items []models.CartItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}

func validatePayment(req models.PaymentRequest) error {
	if len(req.Items) == 0 {
		return apperrors.Validation("Invalid payment data")
	}
	for _, item := range req.Items {
		if item.ID <= 0 {
			return apperrors.Validation("Invalid product in cart")
		}
		if item.Quantity <= 0 {
			return apperrors.Validation("Quantity must be positive")
		}
		if item.Price < 0 {
			return apperrors.Validation("Price must not be negative")
		}
	}

	ship := req.ShippingInfo
	for _, v := range []string{ship.Name, ship.Email, ship.Address, ship.City, ship.Zip} {
		if strings.TrimSpace(v) == "" {
			return apperrors.Validation("Shipping information is incomplete")
		}
	}
	for _, v := range []string{req.CardNumber, req.ExpiryDate, req.CVV} {
		if strings.TrimSpace(v) == "" {
			return apperrors.Validation("Payment details are incomplete")
		}
	}
	return nil
}

func trimShipping(in models.ShippingInfo) models.ShippingInfo {
	return models.ShippingInfo{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Address: strings.TrimSpace(in.Address),
		City:    strings.TrimSpace(in.City),
		Zip:     strings.TrimSpace(in.Zip),
	}
}
