package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/store"
)

func TestCleanupExpiredHolds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	// timers lost, as after a restart
	f.engine.Close()

	f.clock.Advance(6 * time.Minute)
	n, err := f.engine.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
	assert.Equal(t, int64(0), f.holdCount(t))

	rows := f.analytics(t, "sess-1")
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ExpiredAt)
	assert.True(t, rows[0].ExpiredAt.Equal(t0.Add(6*time.Minute)))
	assert.False(t, rows[0].Converted)

	n, err = f.engine.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "sweeping again is a no-op")
}

func TestCleanupExpiredHolds_KeepsActiveHolds(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	expiring, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	f.engine.timers.cancel(expiring.ID)

	f.clock.Set(t0.Add(3 * time.Minute))
	active, err := f.engine.CreateHold(ctx, "sess-2", "anna", "cut", slot.Add(time.Hour))
	require.NoError(t, err)

	f.clock.Set(t0.Add(5 * time.Minute))
	n, err := f.engine.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var left []model.Hold
	require.NoError(t, f.db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, active.ID, left[0].ID)
	assert.Contains(t, f.events.kinds(), analytics.KindExpired)
}

func TestCleanupExpiredHolds_AnalyticsFailureIsIgnored(t *testing.T) {
	f := newFixture(t, failingRecorder{})
	ctx := context.Background()

	_, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	_, err = f.engine.CreateHold(ctx, "sess-2", "ben", "cut", slot.Add(3*time.Hour))
	require.NoError(t, err)
	f.engine.Close()

	f.clock.Advance(time.Hour)
	n, err := f.engine.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, int64(0), f.holdCount(t))
}

func TestSweeper_RunSweepsAtStartAndStops(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	f.engine.Close()
	f.clock.Advance(time.Hour)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		NewSweeper(f.engine, 10*time.Millisecond).Run(runCtx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		var n int64
		f.db.Model(&model.Hold{}).Count(&n)
		return n == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestSweeper_SweepOnce(t *testing.T) {
	f := newFixture(t, nil)
	s := NewSweeper(f.engine, 0)
	assert.Equal(t, time.Minute, s.interval)
	assert.Equal(t, 0, s.SweepOnce(context.Background()))
}

func TestCleanupExpiredHolds_IgnoresHoldsAlreadyGone(t *testing.T) {
	var snapshot []model.Hold
	f := newFixtureWithStore(t, nil, func(s store.Store) store.Store {
		// the sweep reads a list taken before the session replaced its hold
		return &stubStore{
			Store: s,
			findExpiredHolds: func(context.Context, time.Time) ([]model.Hold, error) {
				return snapshot, nil
			},
		}
	})
	ctx := context.Background()

	lapsed, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	f.engine.Close()
	snapshot = []model.Hold{lapsed}

	f.clock.Advance(6 * time.Minute)
	renewed, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	before := len(f.events.kinds())

	n, err := f.engine.CleanupExpiredHolds(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, f.events.kinds(), before, "nothing was swept so nothing is published")
	assert.Equal(t, int64(1), f.holdCount(t, "id = ?", renewed.ID))

	rows := f.analytics(t, "sess-1")
	require.Len(t, rows, 2)
	assert.NotNil(t, rows[0].ExpiredAt)
	last := rows[1]
	assert.True(t, last.HeldAt.Equal(t0.Add(6*time.Minute)))
	assert.Nil(t, last.ExpiredAt, "the renewed hold's record stays open")
	assert.False(t, last.Converted)
}
