package reservation

import (
	"context"
	"log"
	"time"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

// CleanupExpiredHolds deletes every hold whose lease has elapsed, stamps the
// matching analytics records and returns how many holds were removed. It
// recovers holds whose timers were lost to a restart.
func (e *Engine) CleanupExpiredHolds(ctx context.Context) (int, error) {
	now := e.clock.Now()
	var swept []model.Hold
	err := e.store.Transaction(ctx, func(tx store.Store) error {
		swept = nil
		holds, err := tx.FindExpiredHolds(ctx, now)
		if err != nil {
			return storeErr("find expired holds", err)
		}
		// a hold may be gone by the time it is deleted here, taken by a
		// conversion or replaced by its session; only holds removed by this
		// sweep are reported
		for _, h := range holds {
			n, err := tx.DeleteExpiredHold(ctx, h.ID, now)
			if err != nil {
				return storeErr("delete expired hold", err)
			}
			if n == 1 {
				swept = append(swept, h)
			}
		}
		if len(swept) == 0 {
			return nil
		}

		type triple struct{ session, staff, service string }
		seen := make(map[triple]bool, len(swept))
		e.bestEffort(ctx, tx, "record expired", func(tx store.Store) error {
			for _, h := range swept {
				k := triple{h.SessionID, h.StaffID, h.ServiceID}
				if seen[k] {
					continue
				}
				seen[k] = true
				if err := e.recorder.RecordExpired(ctx, tx, h.SessionID, h.StaffID, h.ServiceID, now); err != nil {
					return err
				}
			}
			return nil
		})
		return nil
	})
	if err != nil {
		return 0, txErr("cleanup expired holds", err)
	}

	for i := range swept {
		e.timers.cancel(swept[i].ID)
		e.publish(analytics.KindExpired, &swept[i], nil)
	}
	return len(swept), nil
}

// Sweeper runs CleanupExpiredHolds at start and then on a fixed interval.
type Sweeper struct {
	engine   *Engine
	interval time.Duration
}

// NewSweeper creates a sweeper for e.
func NewSweeper(e *Engine, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{engine: e, interval: interval}
}

// Run blocks until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	log.Println("Starting hold sweeper...")
	s.SweepOnce(ctx)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Hold sweeper shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.interval)
		}
	}
}

// SweepOnce runs a single cleanup and logs the outcome.
func (s *Sweeper) SweepOnce(ctx context.Context) int {
	n, err := s.engine.CleanupExpiredHolds(ctx)
	if err != nil {
		log.Printf("Error sweeping expired holds: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("Swept %d expired holds", n)
	}
	return n
}
