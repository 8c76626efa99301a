package repository

import "github.com/Lixing-Zhang/storefront/internal/models"

// SeedProducts returns the catalog written on first start.
func SeedProducts() []models.Product {
	return []models.Product{
		{
			ID:          1,
			Name:        "Wireless Headphones",
			Description: "High-quality wireless headphones with noise cancellation",
			Price:       199.99,
			Category:    "electronics",
			Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400&h=300&fit=crop",
			Stock:       50,
		},
		{
			ID:          2,
			Name:        "Smart Watch",
			Description: "Fitness tracking smartwatch with heart rate monitor",
			Price:       299.99,
			Category:    "electronics",
			Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=400&h=300&fit=crop",
			Stock:       30,
		},
		{
			ID:          3,
			Name:        "Cotton T-Shirt",
			Description: "Comfortable 100% cotton t-shirt in various colors",
			Price:       29.99,
			Category:    "clothing",
			Image:       "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=400&h=300&fit=crop",
			Stock:       100,
		},
		{
			ID:          4,
			Name:        "Denim Jeans",
			Description: "Classic blue denim jeans with perfect fit",
			Price:       79.99,
			Category:    "clothing",
			Image:       "https://images.unsplash.com/photo-1542272604-787c3835535d?w=400&h=300&fit=crop",
			Stock:       75,
		},
		{
			ID:          5,
			Name:        "Coffee Maker",
			Description: "Automatic drip coffee maker with programmable timer",
			Price:       89.99,
			Category:    "home",
			Image:       "https://images.unsplash.com/photo-1559056199-641a0ac8b55e?w=400&h=300&fit=crop",
			Stock:       25,
		},
		{
			ID:          6,
			Name:        "Garden Tools Set",
			Description: "Complete set of gardening tools for home use",
			Price:       49.99,
			Category:    "home",
			Image:       "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=400&h=300&fit=crop",
			Stock:       40,
		},
		{
			ID:          7,
			Name:        "Yoga Mat",
			Description: "Non-slip yoga mat perfect for workouts and meditation",
			Price:       39.99,
			Category:    "sports",
			Image:       "https://images.unsplash.com/photo-1544367567-0f2fcb009e0b?w=400&h=300&fit=crop",
			Stock:       60,
		},
		{
			ID:          8,
			Name:        "Running Shoes",
			Description: "Lightweight running shoes with excellent cushioning",
			Price:       129.99,
			Category:    "sports",
			Image:       "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400&h=300&fit=crop",
			Stock:       45,
		},
	}
}
