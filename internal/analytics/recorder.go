// Package analytics records the hold funnel (held, converted, expired) and
// fans lifecycle events out to asynchronous sinks.
package analytics

import (
	"context"
	"time"

	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

// Recorder writes hold_analytics rows through the transaction it is given.
// Callers run it inside a savepoint so that a failure never aborts the
// reservation write it accompanies.
type Recorder interface {
	RecordHeld(ctx context.Context, tx store.Store, h model.Hold) error
	RecordConverted(ctx context.Context, tx store.Store, sessionID, staffID, serviceID string) error
	RecordExpired(ctx context.Context, tx store.Store, sessionID, staffID, serviceID string, at time.Time) error
}

// StoreRecorder keeps the analytics rows in the reservation database.
type StoreRecorder struct{}

// NewStoreRecorder returns the database-backed Recorder.
func NewStoreRecorder() *StoreRecorder { return &StoreRecorder{} }

func (StoreRecorder) RecordHeld(ctx context.Context, tx store.Store, h model.Hold) error {
	return tx.CreateHoldAnalytics(ctx, &model.HoldAnalytics{
		SessionID: h.SessionID,
		StaffID:   h.StaffID,
		ServiceID: h.ServiceID,
		HeldAt:    h.CreatedAt,
	})
}

func (StoreRecorder) RecordConverted(ctx context.Context, tx store.Store, sessionID, staffID, serviceID string) error {
	_, err := tx.MarkHoldAnalyticsConverted(ctx, sessionID, staffID, serviceID)
	return err
}

func (StoreRecorder) RecordExpired(ctx context.Context, tx store.Store, sessionID, staffID, serviceID string, at time.Time) error {
	_, err := tx.MarkHoldAnalyticsExpired(ctx, sessionID, staffID, serviceID, at)
	return err
}

// Nop discards every record.
type Nop struct{}

func (Nop) RecordHeld(context.Context, store.Store, model.Hold) error { return nil }
func (Nop) RecordConverted(context.Context, store.Store, string, string, string) error {
	return nil
}
func (Nop) RecordExpired(context.Context, store.Store, string, string, string, time.Time) error {
	return nil
}
