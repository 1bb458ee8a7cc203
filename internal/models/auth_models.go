package models

import "time"

// Roles a staff account can hold.
const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// IsValidRole checks if the provided role string is known.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleStaff:
		return true
	default:
		return false
	}
}

// User is a staff account. Every ledger write records the user that made it.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // '-' means don't send in JSON response
	FullName     string    `json:"full_name" db:"full_name"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Credentials for login request
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
