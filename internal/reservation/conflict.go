package reservation

import (
	"context"
	"time"

	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

// slotCheck describes a conflict query. ignoreHold tells the checker which
// holds belong to the caller and must not count against it.
type slotCheck struct {
	staffID    string
	slotStart  time.Time
	duration   time.Duration
	checkHolds bool
	ignoreHold func(h model.Hold) bool
}

// IsSlotFree reports whether [slotStart, slotStart+duration) is free for the
// staff member. Unknown or inactive staff and services are ErrValidation. A
// non-positive durationMinutes uses the service duration.
//
// Bookings are compared on full interval overlap while holds are compared on
// slot start only.
func (e *Engine) IsSlotFree(ctx context.Context, staffID, serviceID string, slotStart time.Time, durationMinutes int) (bool, error) {
	if staffID == "" || serviceID == "" || slotStart.IsZero() {
		return false, invalid("staff, service and slot start are required")
	}
	svc, err := e.lookupCatalog(ctx, staffID, serviceID)
	if err != nil {
		return false, err
	}
	if durationMinutes <= 0 {
		durationMinutes = svc.DurationMinutes
	}
	return isSlotFree(ctx, e.store, e.clock.Now(), slotCheck{
		staffID:    staffID,
		slotStart:  slotStart.UTC(),
		duration:   time.Duration(durationMinutes) * time.Minute,
		checkHolds: true,
	})
}

// isSlotFree must run in the same transaction as the write it guards.
func isSlotFree(ctx context.Context, tx store.Store, now time.Time, c slotCheck) (bool, error) {
	bookings, err := tx.FindOverlappingBookings(ctx, c.staffID, c.slotStart, c.slotStart.Add(c.duration))
	if err != nil {
		return false, storeErr("find overlapping bookings", err)
	}
	for _, b := range bookings {
		if b.Occupies() {
			return false, nil
		}
	}

	if !c.checkHolds {
		return true, nil
	}
	h, err := tx.FindHoldBySlot(ctx, c.staffID, c.slotStart)
	if err != nil {
		return false, storeErr("find hold by slot", err)
	}
	if h == nil || !h.ActiveAt(now) {
		return true, nil
	}
	if c.ignoreHold != nil && c.ignoreHold(*h) {
		return true, nil
	}
	return false, nil
}
