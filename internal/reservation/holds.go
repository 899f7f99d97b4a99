package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

// CreateHold claims (staffID, slotStart) for the session for the hold lease.
// Any hold the session already has is released in the same transaction, so
// a session never holds two slots. Holding the slot the session already holds
// renews the lease.
func (e *Engine) CreateHold(ctx context.Context, sessionID, staffID, serviceID string, slotStart time.Time) (model.Hold, error) {
	if sessionID == "" || staffID == "" || serviceID == "" {
		return model.Hold{}, invalid("session, staff and service are required")
	}
	if slotStart.IsZero() {
		return model.Hold{}, invalid("slot start is required")
	}
	slotStart = slotStart.UTC()
	if !slotStart.After(e.clock.Now()) {
		return model.Hold{}, invalid("slot %s is in the past", slotStart.Format(time.RFC3339))
	}

	svc, err := e.lookupCatalog(ctx, staffID, serviceID)
	if err != nil {
		return model.Hold{}, err
	}
	if err := e.checkWorkingHours(ctx, staffID, slotStart, svc); err != nil {
		return model.Hold{}, err
	}

	now := e.clock.Now()
	hold := model.Hold{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		StaffID:   staffID,
		ServiceID: serviceID,
		SlotStart: slotStart,
		CreatedAt: now,
		ExpiresAt: now.Add(e.holdDuration),
	}

	var released []model.Hold
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		released = nil
		if _, err := lockStaff(ctx, tx, staffID); err != nil {
			return err
		}

		existing, err := tx.FindHoldBySlot(ctx, staffID, slotStart)
		if err != nil {
			return storeErr("find hold by slot", err)
		}
		if existing != nil && existing.SessionID != sessionID {
			if existing.ActiveAt(now) {
				return fmt.Errorf("%w: slot currently held by another customer", ErrConflict)
			}
			// lapsed but not yet swept; clear it so the unique index admits the new hold
			n, err := tx.DeleteExpiredHold(ctx, existing.ID, now)
			if err != nil {
				return storeErr("delete expired hold", err)
			}
			if n > 0 {
				lapsed := *existing
				e.bestEffort(ctx, tx, "record expired", func(tx store.Store) error {
					return e.recorder.RecordExpired(ctx, tx, lapsed.SessionID, lapsed.StaffID, lapsed.ServiceID, now)
				})
				released = append(released, lapsed)
			}
		}

		booked, err := tx.FindBookingsAt(ctx, staffID, slotStart)
		if err != nil {
			return storeErr("find bookings at slot", err)
		}
		if len(booked) > 0 {
			return fmt.Errorf("%w: slot already booked", ErrConflict)
		}

		prior, err := tx.FindHoldsBySession(ctx, sessionID)
		if err != nil {
			return storeErr("find holds by session", err)
		}
		for _, p := range prior {
			n, err := tx.DeleteHold(ctx, p.ID)
			if err != nil {
				return storeErr("delete hold", err)
			}
			if n == 0 {
				continue
			}
			e.bestEffort(ctx, tx, "record released", func(tx store.Store) error {
				return e.recorder.RecordExpired(ctx, tx, p.SessionID, p.StaffID, p.ServiceID, now)
			})
			released = append(released, p)
		}

		if err := tx.CreateHold(ctx, &hold); err != nil {
			return storeErr("create hold", err)
		}
		e.bestEffort(ctx, tx, "record held", func(tx store.Store) error {
			return e.recorder.RecordHeld(ctx, tx, hold)
		})
		return nil
	})
	if err != nil {
		return model.Hold{}, txErr("create hold", err)
	}

	for i := range released {
		e.timers.cancel(released[i].ID)
		kind := analytics.KindReleased
		if !released[i].ActiveAt(now) {
			kind = analytics.KindExpired
		}
		e.publish(kind, &released[i], nil)
	}
	e.armExpiry(hold)
	e.publish(analytics.KindHeld, &hold, nil)
	return hold, nil
}

// ReleaseHold deletes the hold. Releasing a hold that is already gone is not
// an error.
func (e *Engine) ReleaseHold(ctx context.Context, holdID string) error {
	if holdID == "" {
		return invalid("hold id is required")
	}
	now := e.clock.Now()
	var released *model.Hold
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		released = nil
		h, err := tx.GetHold(ctx, holdID)
		if err != nil {
			return storeErr("get hold", err)
		}
		if h == nil {
			return nil
		}
		n, err := tx.DeleteHold(ctx, holdID)
		if err != nil {
			return storeErr("delete hold", err)
		}
		if n == 0 {
			return nil
		}
		e.bestEffort(ctx, tx, "record released", func(tx store.Store) error {
			return e.recorder.RecordExpired(ctx, tx, h.SessionID, h.StaffID, h.ServiceID, now)
		})
		released = h
		return nil
	})
	if err != nil {
		return txErr("release hold", err)
	}

	e.timers.cancel(holdID)
	if released != nil {
		e.publish(analytics.KindReleased, released, nil)
	}
	return nil
}

func (e *Engine) armExpiry(h model.Hold) {
	id := h.ID
	e.timers.arm(e.clock, id, h.ExpiresAt.Sub(e.clock.Now()), func() { e.expireHold(id) })
}

// expireHold is the per-hold timer callback. A hold that is already gone is
// a no-op; a hold whose lease has not elapsed yet is re-armed.
func (e *Engine) expireHold(id string) {
	ctx := context.Background()
	now := e.clock.Now()

	var expired, pending *model.Hold
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		expired, pending = nil, nil
		h, err := tx.GetHold(ctx, id)
		if err != nil {
			return storeErr("get hold", err)
		}
		if h == nil {
			return nil
		}
		if h.ActiveAt(now) {
			pending = h
			return nil
		}
		n, err := tx.DeleteExpiredHold(ctx, id, now)
		if err != nil {
			return storeErr("delete expired hold", err)
		}
		if n == 0 {
			return nil
		}
		e.bestEffort(ctx, tx, "record expired", func(tx store.Store) error {
			return e.recorder.RecordExpired(ctx, tx, h.SessionID, h.StaffID, h.ServiceID, now)
		})
		expired = h
		return nil
	})
	e.timers.remove(id)
	if err != nil {
		// the batch sweep reclaims the hold later
		e.logger.Printf("Error expiring hold %s: %v", id, err)
		return
	}

	if pending != nil {
		e.armExpiry(*pending)
		return
	}
	if expired != nil {
		e.publish(analytics.KindExpired, expired, nil)
	}
}
