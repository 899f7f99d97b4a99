// Package reservation guarantees that a salon time slot is claimed by at most
// one customer at a time. Customers first take a short hold on a slot and then
// convert it into a booking; holds that are neither converted nor released
// expire after a fixed lease.
//
// Every write runs in one store transaction that starts by locking the staff
// row, so the conflict check and the write that depends on it cannot
// interleave with another writer for the same staff member.
package reservation

import (
	"context"
	"log"
	"time"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/clock"
	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

// DefaultHoldDuration is the hold lease used unless WithHoldDuration overrides it.
const DefaultHoldDuration = 5 * time.Minute

// EventPublisher receives lifecycle events after their transaction commits.
type EventPublisher interface {
	Publish(ev analytics.Event)
}

// Engine is the reservation core. It is safe for concurrent use.
type Engine struct {
	store        store.Store
	clock        clock.Clock
	availability Availability
	recorder     analytics.Recorder
	publisher    EventPublisher
	logger       *log.Logger
	holdDuration time.Duration
	timers       *timerRegistry
}

// Option configures an Engine.
type Option func(*Engine)

// WithHoldDuration sets the hold lease.
func WithHoldDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.holdDuration = d
		}
	}
}

// WithPublisher sets where lifecycle events are sent.
func WithPublisher(p EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithLogger sets the logger used for analytics and expiry failures.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an engine. A nil availability accepts every slot and a nil
// recorder discards analytics.
func New(s store.Store, c clock.Clock, availability Availability, recorder analytics.Recorder, opts ...Option) *Engine {
	if availability == nil {
		availability = AlwaysAvailable{}
	}
	if recorder == nil {
		recorder = analytics.Nop{}
	}
	e := &Engine{
		store:        s,
		clock:        c,
		availability: availability,
		recorder:     recorder,
		logger:       log.Default(),
		holdDuration: DefaultHoldDuration,
		timers:       newTimerRegistry(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HoldDuration returns the configured hold lease.
func (e *Engine) HoldDuration() time.Duration {
	return e.holdDuration
}

// Close stops every pending expiration timer. Holds left in the store are
// reclaimed by CleanupExpiredHolds on the next start.
func (e *Engine) Close() {
	e.timers.stopAll()
}

// bestEffort runs an analytics write in a savepoint of tx. Failures are
// logged and never reach the caller.
func (e *Engine) bestEffort(ctx context.Context, tx store.Store, what string, fn func(tx store.Store) error) {
	if err := tx.BestEffort(ctx, fn); err != nil {
		e.logger.Printf("analytics: %s: %v", what, err)
	}
}

func (e *Engine) publish(kind analytics.Kind, h *model.Hold, b *model.Booking) {
	if e.publisher == nil {
		return
	}
	ev := analytics.NewEvent(kind, e.clock.Now())
	if h != nil {
		ev.HoldID = h.ID
		ev.SessionID = h.SessionID
		ev.StaffID = h.StaffID
		ev.ServiceID = h.ServiceID
		ev.SlotStart = h.SlotStart
	}
	if b != nil {
		ev.BookingID = b.ID
		ev.StaffID = b.StaffID
		ev.ServiceID = b.ServiceID
		ev.SlotStart = b.SlotStart
	}
	e.publisher.Publish(ev)
}

// lockStaff takes the per-staff write lock and validates the staff member.
func lockStaff(ctx context.Context, tx store.Store, staffID string) (*model.Staff, error) {
	st, err := tx.LockStaff(ctx, staffID)
	if err != nil {
		return nil, storeErr("lock staff", err)
	}
	if st == nil || !st.Active {
		return nil, invalid("unknown staff %q", staffID)
	}
	return st, nil
}

// lookupCatalog validates staff and service outside any transaction.
func (e *Engine) lookupCatalog(ctx context.Context, staffID, serviceID string) (*model.Service, error) {
	st, err := e.store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, storeErr("get staff", err)
	}
	if st == nil || !st.Active {
		return nil, invalid("unknown staff %q", staffID)
	}
	svc, err := e.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, storeErr("get service", err)
	}
	if svc == nil || !svc.Active {
		return nil, invalid("unknown service %q", serviceID)
	}
	if svc.DurationMinutes <= 0 {
		return nil, invalid("service %q has no duration", serviceID)
	}
	return svc, nil
}

func (e *Engine) checkWorkingHours(ctx context.Context, staffID string, slotStart time.Time, svc *model.Service) error {
	ok, err := e.availability.IsStaffAvailable(ctx, staffID, slotStart, svc.DurationMinutes)
	if err != nil {
		return &StoreError{Op: "check availability", Err: err}
	}
	if !ok {
		return invalid("staff %q is not working at %s", staffID, slotStart.UTC().Format(time.RFC3339))
	}
	return nil
}
