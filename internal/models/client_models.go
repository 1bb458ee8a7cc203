package models

import (
	"time"

	"ghostlounge_backend/pkg/money"
)

// Client represents a lounge customer. Balance is never stored; it is
// computed from the client's transactions and payments on every read.
type Client struct {
	ID          int64       `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Phone       *string     `json:"phone,omitempty" db:"phone"`
	Email       *string     `json:"email,omitempty" db:"email"`
	Notes       *string     `json:"notes,omitempty" db:"notes"`
	TotalPoints int64       `json:"total_points" db:"total_points"`
	Balance     money.Cents `json:"balance"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// ClientFilters defines the available filters for listing clients.
type ClientFilters struct {
	Search   string `form:"search"` // matches name, phone or email
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}
