package analytics

import (
	"time"

	"github.com/google/uuid"
)

// Kind names a hold or booking lifecycle transition.
type Kind string

const (
	KindHeld      Kind = "held"
	KindReleased  Kind = "released"
	KindExpired   Kind = "expired"
	KindConverted Kind = "converted"
	KindBooked    Kind = "booked"
)

// Event is published after the transaction that caused it has committed.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	HoldID    string    `json:"hold_id,omitempty"`
	BookingID string    `json:"booking_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	StaffID   string    `json:"staff_id"`
	ServiceID string    `json:"service_id"`
	SlotStart time.Time `json:"slot_start"`
	At        time.Time `json:"at"`
}

// NewEvent stamps an event with a fresh ID.
func NewEvent(kind Kind, at time.Time) Event {
	return Event{ID: uuid.NewString(), Kind: kind, At: at.UTC()}
}
