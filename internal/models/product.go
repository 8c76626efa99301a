package models

import "time"

// Product represents an item in the storefront catalog.
// Price is non-negative; Stock never drops below zero.
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Category    string     `json:"category"`
	Image       string     `json:"image"`
	Stock       int        `json:"stock"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
}

// DefaultProductImage is used when a product is created without an image.
const DefaultProductImage = "https://via.placeholder.com/400x300"

// ProductInput carries the fields of an admin create or update request.
// Nil fields are left untouched on update.
type ProductInput struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Image       *string  `json:"image,omitempty"`
	Stock       *int     `json:"stock,omitempty"`
}

// Apply merges the non-nil fields of in onto p.
func (in ProductInput) Apply(p *Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.Image != nil {
		p.Image = *in.Image
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
}

// ProductResponse is returned by the admin create and update endpoints.
type ProductResponse struct {
	Message string  `json:"message"`
	Product Product `json:"product"`
}
