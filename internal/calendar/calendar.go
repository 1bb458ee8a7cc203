// Package calendar mirrors reservation changes to an external calendar.
// Mirroring is best effort: a failed publish never affects the reservation.
package calendar

import (
	"context"
	"time"

	"ghostlounge_backend/internal/models"
)

// Actions carried by an Event.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event describes one reservation change.
type Event struct {
	Action           string    `json:"action"`
	ReservationID    int64     `json:"reservation_id"`
	ClientID         int64     `json:"client_id"`
	ClientName       string    `json:"client_name,omitempty"`
	PCID             int64     `json:"pc_id"`
	PCName           string    `json:"pc_name,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	Notes            *string   `json:"notes,omitempty"`
	ExternalEventRef *string   `json:"external_event_ref,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// NewEvent builds an Event from a stored reservation.
func NewEvent(action string, r *models.Reservation, now time.Time) Event {
	return Event{
		Action:           action,
		ReservationID:    r.ID,
		ClientID:         r.ClientID,
		ClientName:       r.ClientName,
		PCID:             r.PCID,
		PCName:           r.PCName,
		StartTime:        r.StartTime,
		EndTime:          r.EndTime,
		Notes:            r.Notes,
		ExternalEventRef: r.ExternalEventRef,
		OccurredAt:       now,
	}
}

// Syncer publishes reservation changes.
type Syncer interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
