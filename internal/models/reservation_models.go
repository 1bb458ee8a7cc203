package models

import "time"

// PC is a bookable gaming station. Inactive PCs keep their history but
// cannot take new bookings.
type PC struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description *string   `json:"description,omitempty" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Reservation books a PC for the half-open interval [StartTime, EndTime).
type Reservation struct {
	ID               int64     `json:"id" db:"id"`
	ClientID         int64     `json:"client_id" db:"client_id"`
	PCID             int64     `json:"pc_id" db:"pc_id"`
	StartTime        time.Time `json:"start_time" db:"start_time"`
	EndTime          time.Time `json:"end_time" db:"end_time"`
	Notes            *string   `json:"notes,omitempty" db:"notes"`
	ExternalEventRef *string   `json:"external_event_ref,omitempty" db:"external_event_ref"`
	CreatedBy        *int64    `json:"created_by,omitempty" db:"created_by"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
	ClientName       string    `json:"client_name,omitempty"`
	PCName           string    `json:"pc_name,omitempty"`
}

// Overlaps reports whether r intersects [start, end) using half-open semantics.
func (r Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}
