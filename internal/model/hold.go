package model

import "time"

// Hold is a time-limited claim on a (staff, slot start) pair. Rows are never
// updated: a hold ends by being deleted, whether it was converted, released
// or expired.
type Hold struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	SessionID string    `gorm:"size:128;not null;uniqueIndex:idx_holds_session" json:"session_id"`
	StaffID   string    `gorm:"size:64;not null;uniqueIndex:idx_holds_staff_slot,priority:1" json:"staff_id"`
	ServiceID string    `gorm:"size:64;not null" json:"service_id"`
	SlotStart time.Time `gorm:"not null;uniqueIndex:idx_holds_staff_slot,priority:2" json:"slot_start"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

// ActiveAt reports whether the lease is still running at now. A hold whose
// lease has elapsed is treated as absent whether or not its row was swept.
func (h Hold) ActiveAt(now time.Time) bool {
	return now.Before(h.ExpiresAt)
}
