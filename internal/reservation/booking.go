package reservation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

// BookingRequest is a direct booking that does not go through a hold.
type BookingRequest struct {
	StaffID   string
	ServiceID string
	SlotStart time.Time
	Customer  model.CustomerDetails
	// SessionID, when set, names the session whose holds on this exact slot
	// are consumed by the booking.
	SessionID string
	// SkipAvailabilityCheck skips the hold and working hours checks. Booking
	// overlap is always enforced.
	SkipAvailabilityCheck bool
}

// ConvertHoldToBooking turns an active hold into a confirmed booking. The
// booking insert, the hold delete and the analytics update commit together;
// if the hold expired or was removed meanwhile, ErrNotFound is returned and
// nothing is written.
func (e *Engine) ConvertHoldToBooking(ctx context.Context, holdID string, customer model.CustomerDetails) (model.Booking, error) {
	if holdID == "" {
		return model.Booking{}, invalid("hold id is required")
	}
	if err := validateCustomer(customer); err != nil {
		return model.Booking{}, err
	}

	now := e.clock.Now()
	var (
		booking model.Booking
		hold    model.Hold
	)
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		h, err := tx.GetHold(ctx, holdID)
		if err != nil {
			return storeErr("get hold", err)
		}
		if h == nil || !h.ActiveAt(now) {
			return ErrNotFound
		}
		hold = *h

		if _, err := lockStaff(ctx, tx, h.StaffID); err != nil {
			return err
		}
		svc, err := tx.GetService(ctx, h.ServiceID)
		if err != nil {
			return storeErr("get service", err)
		}
		if svc == nil {
			return invalid("unknown service %q", h.ServiceID)
		}

		free, err := isSlotFree(ctx, tx, now, slotCheck{
			staffID:    h.StaffID,
			slotStart:  h.SlotStart,
			duration:   svc.Duration(),
			checkHolds: true,
			ignoreHold: func(other model.Hold) bool { return other.ID == h.ID },
		})
		if err != nil {
			return err
		}
		if !free {
			return ErrConflict
		}

		booking = newBooking(h.StaffID, svc, h.SlotStart, customer, now)
		if err := tx.CreateBooking(ctx, &booking); err != nil {
			return storeErr("create booking", err)
		}

		n, err := tx.DeleteHold(ctx, h.ID)
		if err != nil {
			return storeErr("delete hold", err)
		}
		if n == 0 {
			// expired or released concurrently; the booking is rolled back
			return ErrNotFound
		}

		e.bestEffort(ctx, tx, "record converted", func(tx store.Store) error {
			return e.recorder.RecordConverted(ctx, tx, h.SessionID, h.StaffID, h.ServiceID)
		})
		return nil
	})
	if err != nil {
		return model.Booking{}, txErr("convert hold", err)
	}

	e.timers.cancel(hold.ID)
	e.publish(analytics.KindConverted, &hold, &booking)
	return booking, nil
}

// CreateBooking books a slot directly. Unless SkipAvailabilityCheck is set the
// slot must be free of bookings and of other sessions' holds. Holds of
// req.SessionID on exactly this slot are deleted with the booking.
func (e *Engine) CreateBooking(ctx context.Context, req BookingRequest) (model.Booking, error) {
	if req.StaffID == "" || req.ServiceID == "" {
		return model.Booking{}, invalid("staff and service are required")
	}
	if req.SlotStart.IsZero() {
		return model.Booking{}, invalid("slot start is required")
	}
	if err := validateCustomer(req.Customer); err != nil {
		return model.Booking{}, err
	}
	slotStart := req.SlotStart.UTC()

	svc, err := e.lookupCatalog(ctx, req.StaffID, req.ServiceID)
	if err != nil {
		return model.Booking{}, err
	}
	if !req.SkipAvailabilityCheck {
		if !slotStart.After(e.clock.Now()) {
			return model.Booking{}, invalid("slot %s is in the past", slotStart.Format(time.RFC3339))
		}
		if err := e.checkWorkingHours(ctx, req.StaffID, slotStart, svc); err != nil {
			return model.Booking{}, err
		}
	}

	now := e.clock.Now()
	var (
		booking  model.Booking
		consumed []model.Hold
	)
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		consumed = nil
		if _, err := lockStaff(ctx, tx, req.StaffID); err != nil {
			return err
		}

		free, err := isSlotFree(ctx, tx, now, slotCheck{
			staffID:    req.StaffID,
			slotStart:  slotStart,
			duration:   svc.Duration(),
			checkHolds: !req.SkipAvailabilityCheck,
			ignoreHold: func(h model.Hold) bool { return req.SessionID != "" && h.SessionID == req.SessionID },
		})
		if err != nil {
			return err
		}
		if !free {
			return ErrConflict
		}

		booking = newBooking(req.StaffID, svc, slotStart, req.Customer, now)
		if err := tx.CreateBooking(ctx, &booking); err != nil {
			return storeErr("create booking", err)
		}

		if req.SessionID == "" {
			return nil
		}
		matching, err := tx.FindHoldsMatching(ctx, req.SessionID, req.StaffID, req.ServiceID, slotStart)
		if err != nil {
			return storeErr("find matching holds", err)
		}
		for _, h := range matching {
			n, err := tx.DeleteHold(ctx, h.ID)
			if err != nil {
				return storeErr("delete hold", err)
			}
			if n > 0 {
				consumed = append(consumed, h)
			}
		}
		if len(consumed) > 0 {
			e.bestEffort(ctx, tx, "record converted", func(tx store.Store) error {
				return e.recorder.RecordConverted(ctx, tx, req.SessionID, req.StaffID, req.ServiceID)
			})
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, txErr("create booking", err)
	}

	for i := range consumed {
		e.timers.cancel(consumed[i].ID)
		e.publish(analytics.KindConverted, &consumed[i], &booking)
	}
	e.publish(analytics.KindBooked, nil, &booking)
	return booking, nil
}

func validateCustomer(c model.CustomerDetails) error {
	if strings.TrimSpace(c.Name) == "" {
		return invalid("customer name is required")
	}
	if strings.TrimSpace(c.Phone) == "" {
		return invalid("customer phone is required")
	}
	return nil
}

func newBooking(staffID string, svc *model.Service, slotStart time.Time, c model.CustomerDetails, now time.Time) model.Booking {
	return model.Booking{
		ID:              uuid.NewString(),
		StaffID:         staffID,
		ServiceID:       svc.ID,
		SlotStart:       slotStart.UTC(),
		SlotEnd:         slotStart.UTC().Add(svc.Duration()),
		DurationMinutes: svc.DurationMinutes,
		CustomerName:    strings.TrimSpace(c.Name),
		CustomerPhone:   strings.TrimSpace(c.Phone),
		CustomerEmail:   c.Email,
		CustomerID:      c.CustomerID,
		PriceCents:      svc.PriceCents,
		Status:          model.BookingStatusConfirmed,
		Notes:           c.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// String renders the request for logs.
func (r BookingRequest) String() string {
	return fmt.Sprintf("booking staff=%s service=%s slot=%s session=%s", r.StaffID, r.ServiceID, r.SlotStart.UTC().Format(time.RFC3339), r.SessionID)
}
