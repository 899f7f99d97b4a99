package reservation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salon-booking-backend/internal/analytics"
	"salon-booking-backend/internal/model"
)

func TestCreateHold_ConflictThenSucceedsAfterLease(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	assert.Equal(t, t0.Add(5*time.Minute), first.ExpiresAt)

	f.clock.Set(t0.Add(2 * time.Minute))
	_, err = f.engine.CreateHold(ctx, "sess-2", "anna", "cut", slot)
	assert.ErrorIs(t, err, ErrConflict)

	f.clock.Set(t0.Add(6 * time.Minute))
	second, err := f.engine.CreateHold(ctx, "sess-2", "anna", "cut", slot)
	require.NoError(t, err)
	assert.Equal(t, "sess-2", second.SessionID)
	assert.Equal(t, int64(1), f.holdCount(t))
}

func TestCreateHold_LapsedHoldIsAbsentWithoutSweep(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	// no timer and no sweep: only the lease decides
	f.engine.timers.cancel(first.ID)
	f.clock.Set(first.ExpiresAt)
	assert.Equal(t, int64(1), f.holdCount(t))

	free, err := f.engine.IsSlotFree(ctx, "anna", "cut", slot, 0)
	require.NoError(t, err)
	assert.True(t, free, "a hold is absent once now reaches its expiry")

	_, err = f.engine.CreateHold(ctx, "sess-2", "anna", "cut", slot)
	require.NoError(t, err)

	var holds []model.Hold
	require.NoError(t, f.db.Find(&holds).Error)
	require.Len(t, holds, 1)
	assert.Equal(t, "sess-2", holds[0].SessionID)

	rows := f.analytics(t, "sess-1")
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ExpiredAt, "the reclaimed hold's record is closed")
}

func TestCreateHold_SessionHoldsOneSlot(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	slots := []time.Time{slot, slot.Add(time.Hour), slot.Add(2 * time.Hour), slot.Add(3 * time.Hour)}
	var last model.Hold
	for i, s := range slots {
		staff := "anna"
		if i%2 == 1 {
			staff = "ben"
			s = s.Add(3 * time.Hour)
		}
		h, err := f.engine.CreateHold(ctx, "sess-1", staff, "cut", s)
		require.NoError(t, err)
		last = h
	}

	var holds []model.Hold
	require.NoError(t, f.db.Where("session_id = ?", "sess-1").Find(&holds).Error)
	require.Len(t, holds, 1)
	assert.Equal(t, last.ID, holds[0].ID)
	assert.True(t, holds[0].SlotStart.Equal(last.SlotStart))
	assert.Equal(t, 1, f.clock.Pending(), "replaced holds' timers are cancelled")

	rows := f.analytics(t, "sess-1")
	require.Len(t, rows, len(slots))
	for _, r := range rows[:len(rows)-1] {
		assert.NotNil(t, r.ExpiredAt, "released holds close their record")
	}
	assert.Nil(t, rows[len(rows)-1].ExpiredAt)
	assert.Equal(t, []analytics.Kind{
		analytics.KindHeld,
		analytics.KindReleased, analytics.KindHeld,
		analytics.KindReleased, analytics.KindHeld,
		analytics.KindReleased, analytics.KindHeld,
	}, f.events.kinds())
}

func TestCreateHold_SameSlotRenewsLease(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	f.clock.Set(t0.Add(4 * time.Minute))
	renewed, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, renewed.ID)
	assert.Equal(t, t0.Add(9*time.Minute), renewed.ExpiresAt)
	assert.Equal(t, int64(1), f.holdCount(t))
	assert.Equal(t, 1, f.clock.Pending())

	// the first lease would have ended here
	f.clock.Set(t0.Add(6 * time.Minute))
	assert.Equal(t, int64(1), f.holdCount(t, "id = ?", renewed.ID))
}

func TestCreateHold_BookedSlotConflicts(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.CreateBooking(ctx, BookingRequest{StaffID: "anna", ServiceID: "cut", SlotStart: slot, Customer: customer})
	require.NoError(t, err)

	_, err = f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(0), f.holdCount(t))
}

func TestCreateHold_Validation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		session   string
		staff     string
		service   string
		slotStart time.Time
	}{
		{"missing session", "", "anna", "cut", slot},
		{"missing staff", "s", "", "cut", slot},
		{"missing slot", "s", "anna", "cut", time.Time{}},
		{"slot in the past", "s", "anna", "cut", t0.Add(-time.Hour)},
		{"unknown staff", "s", "zoe", "cut", slot},
		{"inactive staff", "s", "cleo", "cut", slot},
		{"unknown service", "s", "anna", "shave", slot},
		{"inactive service", "s", "anna", "perm", slot},
		{"before working hours", "s", "anna", "cut", time.Date(2024, 12, 21, 8, 30, 0, 0, time.UTC)},
		{"runs past working hours", "s", "anna", "color", time.Date(2024, 12, 20, 17, 0, 0, 0, time.UTC)},
		{"day off", "s", "ben", "cut", time.Date(2024, 12, 21, 13, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.CreateHold(ctx, tt.session, tt.staff, tt.service, tt.slotStart)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, int64(0), f.holdCount(t))
}

func TestCreateHold_ConcurrentRequestsOnlyOneWins(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.CreateHold(ctx, fmt.Sprintf("sess-%d", i), "anna", "cut", slot)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrConflict)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, int64(1), f.holdCount(t))
}

func TestReleaseHold(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	h, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	require.NoError(t, f.engine.ReleaseHold(ctx, h.ID))
	assert.Equal(t, int64(0), f.holdCount(t))
	assert.Equal(t, 0, f.clock.Pending())

	rows := f.analytics(t, "sess-1")
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].ExpiredAt)
	assert.False(t, rows[0].Converted)

	require.NoError(t, f.engine.ReleaseHold(ctx, h.ID), "releasing twice is a no-op")
	require.NoError(t, f.engine.ReleaseHold(ctx, "never-existed"))
	assert.ErrorIs(t, f.engine.ReleaseHold(ctx, ""), ErrValidation)

	assert.Equal(t, []analytics.Kind{analytics.KindHeld, analytics.KindReleased}, f.events.kinds())
}

func TestHoldTimer_ExpiresHold(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	h, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	f.clock.Advance(4 * time.Minute)
	assert.Equal(t, int64(1), f.holdCount(t))

	f.clock.Advance(time.Minute)
	assert.Equal(t, int64(0), f.holdCount(t), "the timer deletes the hold at its expiry")
	assert.Equal(t, 0, f.engine.timers.len())

	rows := f.analytics(t, "sess-1")
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].ExpiredAt)
	assert.True(t, rows[0].ExpiredAt.Equal(h.ExpiresAt))
	assert.False(t, rows[0].Converted)

	assert.Equal(t, []analytics.Kind{analytics.KindHeld, analytics.KindExpired}, f.events.kinds())
}

func TestHoldTimer_MissingHoldIsNoop(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	h, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&model.Hold{}, "id = ?", h.ID).Error)

	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, 0, f.engine.timers.len())
	assert.Equal(t, []analytics.Kind{analytics.KindHeld}, f.events.kinds())
}

func TestHoldTimer_EarlyFireRearms(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	h, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	// simulate a timer that fires before the lease ends
	f.engine.timers.cancel(h.ID)
	f.engine.timers.arm(f.clock, h.ID, time.Minute, func() { f.engine.expireHold(h.ID) })

	f.clock.Advance(time.Minute)
	assert.Equal(t, int64(1), f.holdCount(t))
	assert.Equal(t, 1, f.clock.Pending(), "the hold is re-armed for its real expiry")

	f.clock.Advance(4 * time.Minute)
	assert.Equal(t, int64(0), f.holdCount(t))
}

func TestCreateHold_AnalyticsFailureIsIgnored(t *testing.T) {
	f := newFixture(t, failingRecorder{})
	ctx := context.Background()

	h, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.holdCount(t, "id = ?", h.ID))

	_, err = f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.holdCount(t))

	f.clock.Advance(10 * time.Minute)
	assert.Equal(t, int64(0), f.holdCount(t))
}

func TestCreateHold_MissingAnalyticsTableIsIgnored(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.db.Migrator().DropTable(&model.HoldAnalytics{}))

	h, err := f.engine.CreateHold(ctx, "sess-1", "anna", "cut", slot)
	require.NoError(t, err)

	b, err := f.engine.ConvertHoldToBooking(ctx, h.ID, customer)
	require.NoError(t, err)
	assert.Equal(t, h.SlotStart, b.SlotStart)
	assert.Equal(t, int64(0), f.holdCount(t))
	assert.Equal(t, int64(1), f.bookingCount(t))
}

func TestErrorsAreDistinct(t *testing.T) {
	assert.False(t, errors.Is(ErrConflict, ErrNotFound))
	assert.Equal(t, "this slot is no longer available, please choose another", ErrConflict.Error())
	assert.Equal(t, "your hold has expired, please reselect a time", ErrNotFound.Error())
}
