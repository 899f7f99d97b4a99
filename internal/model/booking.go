package model

import "time"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// Booking is a confirmed appointment. SlotEnd is stored so that overlap can be
// checked (and, on PostgreSQL, constrained) without joining services.
type Booking struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	StaffID         string        `gorm:"size:64;not null;index:idx_bookings_staff_start,priority:1" json:"staff_id"`
	ServiceID       string        `gorm:"size:64;not null" json:"service_id"`
	SlotStart       time.Time     `gorm:"not null;index:idx_bookings_staff_start,priority:2" json:"slot_start"`
	SlotEnd         time.Time     `gorm:"not null" json:"slot_end"`
	DurationMinutes int           `gorm:"not null" json:"duration_minutes"`
	CustomerName    string        `gorm:"size:256;not null" json:"customer_name"`
	CustomerPhone   string        `gorm:"size:64;not null" json:"customer_phone"`
	CustomerEmail   *string       `gorm:"size:256" json:"customer_email,omitempty"`
	CustomerID      *string       `gorm:"size:64;index" json:"customer_id,omitempty"`
	PriceCents      int64         `gorm:"not null" json:"price_cents"`
	Status          BookingStatus `gorm:"type:varchar(32);not null;index" json:"status"`
	Notes           *string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt       time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null" json:"-"`
}

// Occupies reports whether the booking blocks its interval. Cancelled
// bookings free the slot; every other status keeps it.
func (b Booking) Occupies() bool {
	return b.Status != BookingStatusCancelled
}

// CustomerDetails is what a caller supplies to turn a slot into a booking.
type CustomerDetails struct {
	Name       string
	Phone      string
	Email      *string
	CustomerID *string
	Notes      *string
}
