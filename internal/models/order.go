package models

import "time"

// OrderStatusConfirmed is the status of every order created by checkout.
const OrderStatusConfirmed = "confirmed"

// CartItem is a product snapshot plus the quantity being bought.
// The embedded product flattens into the same JSON object.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// ShippingInfo is where an order ships to.
type ShippingInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Zip     string `json:"zip"`
}

// Order is a finalized checkout. Orders are never updated.
type Order struct {
	ID              string       `json:"id"`
	UserID          string       `json:"userId"`
	Items           []CartItem   `json:"items"`
	Total           float64      `json:"total"`
	Currency        string       `json:"currency"`
	PaymentIntentID string       `json:"paymentIntentId"`
	ShippingInfo    ShippingInfo `json:"shippingInfo"`
	Status          string       `json:"status"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// PaymentRequest is the body of POST /api/payments/process.
// Amount is what the client displayed; the server computes its own total.
type PaymentRequest struct {
	Amount       float64      `json:"amount"`
	Currency     string       `json:"currency"`
	CardNumber   string       `json:"cardNumber"`
	ExpiryDate   string       `json:"expiryDate"`
	CVV          string       `json:"cvv"`
	ShippingInfo ShippingInfo `json:"shippingInfo"`
	Items        []CartItem   `json:"items"`
}

// PaymentIntent is the fabricated payment confirmation.
// Amount is in the currency's minor unit.
type PaymentIntent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Created  int64  `json:"created"`
}

// PaymentResult is returned by a successful checkout.
type PaymentResult struct {
	Message           string        `json:"message,omitempty"`
	OrderID           string        `json:"orderId"`
	Total             float64       `json:"total"`
	PaymentIntent     PaymentIntent `json:"paymentIntent"`
	SkippedProductIDs []int64       `json:"skippedProductIds,omitempty"`
}
