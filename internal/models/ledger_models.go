package models

import (
	"time"

	"ghostlounge_backend/pkg/money"
)

// Transaction is a charge against a client. UnitPrice is captured at sale
// time; Total = Quantity × UnitPrice. Immutable except for deletion.
type Transaction struct {
	ID            int64       `json:"id" db:"id"`
	ClientID      int64       `json:"client_id" db:"client_id"`
	ProductID     int64       `json:"product_id" db:"product_id"`
	Quantity      int         `json:"quantity" db:"quantity"`
	UnitPrice     money.Cents `json:"unit_price" db:"unit_price"`
	Total         money.Cents `json:"total" db:"total"`
	Notes         *string     `json:"notes,omitempty" db:"notes"`
	CreatedBy     int64       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	ClientName    string      `json:"client_name,omitempty"`
	ProductName   string      `json:"product_name,omitempty"`
	CreatedByName string      `json:"created_by_name,omitempty"`
}

// Payment reduces a client's balance. Overpayment is allowed.
type Payment struct {
	ID            int64       `json:"id" db:"id"`
	ClientID      int64       `json:"client_id" db:"client_id"`
	Amount        money.Cents `json:"amount" db:"amount"`
	Method        string      `json:"method" db:"method"`
	Notes         *string     `json:"notes,omitempty" db:"notes"`
	CreatedBy     int64       `json:"created_by" db:"created_by"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	ClientName    string      `json:"client_name,omitempty"`
	CreatedByName string      `json:"created_by_name,omitempty"`
}

// Common payment methods. Method is free text; these are what the desk uses.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodCard     = "card"
	PaymentMethodTransfer = "transfer"
)

// PaymentAlert reminds staff that a client owes Amount by DueAt.
// IsNotified only ever goes from false to true.
type PaymentAlert struct {
	ID         int64       `json:"id" db:"id"`
	ClientID   int64       `json:"client_id" db:"client_id"`
	DueAt      time.Time   `json:"due_at" db:"due_at"`
	Amount     money.Cents `json:"amount" db:"amount"`
	Notes      *string     `json:"notes,omitempty" db:"notes"`
	IsNotified bool        `json:"is_notified" db:"is_notified"`
	CreatedBy  *int64      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	ClientName string      `json:"client_name,omitempty"`
}
