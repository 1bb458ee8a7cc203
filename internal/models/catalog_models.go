package models

import (
	"time"

	"ghostlounge_backend/pkg/money"
)

// Category groups products on the sale screen.
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Product is a sellable item. GhostPoints are loyalty points earned per unit sold.
type Product struct {
	ID           int64       `json:"id" db:"id"`
	Name         string      `json:"name" db:"name"`
	CategoryID   *int64      `json:"category_id,omitempty" db:"category_id"`
	CategoryName *string     `json:"category_name,omitempty"`
	Price        money.Cents `json:"price" db:"price"`
	GhostPoints  int64       `json:"ghost_points" db:"ghost_points"`
	Description  *string     `json:"description,omitempty" db:"description"`
	IsActive     bool        `json:"is_active" db:"is_active"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// ProductFilters defines the available filters for listing products.
type ProductFilters struct {
	Search     string `form:"search"`
	CategoryID *int64 `form:"category_id"`
	ActiveOnly bool   `form:"active_only"`
}
