package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"salon-booking-backend/internal/model"
	"salon-booking-backend/internal/parse"
	"salon-booking-backend/internal/store"
)

// Availability reports whether a staff member works during a slot. It is
// consulted before a hold is taken.
type Availability interface {
	IsStaffAvailable(ctx context.Context, staffID string, slotStart time.Time, durationMinutes int) (bool, error)
}

// AlwaysAvailable accepts every slot.
type AlwaysAvailable struct{}

func (AlwaysAvailable) IsStaffAvailable(context.Context, string, time.Time, int) (bool, error) {
	return true, nil
}

// WorkingHours checks slots against each staff member's working days and
// hours, interpreted in the venue time zone. Staff rows are cached for ttl.
type WorkingHours struct {
	store store.Store
	loc   *time.Location
	cache *cache.Cache
}

// NewWorkingHours creates the oracle. A nil loc means UTC.
func NewWorkingHours(s store.Store, loc *time.Location, ttl time.Duration) *WorkingHours {
	if loc == nil {
		loc = time.UTC
	}
	return &WorkingHours{
		store: s,
		loc:   loc,
		cache: cache.New(ttl, 2*ttl),
	}
}

type shift struct {
	active bool
	days   map[time.Weekday]bool
	start  int
	end    int
}

func (w *WorkingHours) IsStaffAvailable(ctx context.Context, staffID string, slotStart time.Time, durationMinutes int) (bool, error) {
	sh, err := w.shiftFor(ctx, staffID)
	if err != nil {
		return false, err
	}
	if sh == nil || !sh.active || durationMinutes <= 0 {
		return false, nil
	}

	local := slotStart.In(w.loc)
	if !sh.days[local.Weekday()] {
		return false, nil
	}
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return false, nil
	}
	start := local.Hour()*60 + local.Minute()
	return start >= sh.start && start+durationMinutes <= sh.end, nil
}

// Invalidate drops the cached shift of a staff member.
func (w *WorkingHours) Invalidate(staffID string) {
	w.cache.Delete(staffID)
}

func (w *WorkingHours) shiftFor(ctx context.Context, staffID string) (*shift, error) {
	if cached, found := w.cache.Get(staffID); found {
		return cached.(*shift), nil
	}

	st, err := w.store.GetStaff(ctx, staffID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, nil
	}
	sh, err := parseShift(st)
	if err != nil {
		return nil, err
	}
	w.cache.SetDefault(staffID, sh)
	return sh, nil
}

func parseShift(st *model.Staff) (*shift, error) {
	days, err := parse.ParseWeekdays(st.WorkDays)
	if err != nil {
		return nil, fmt.Errorf("staff %s work days: %w", st.ID, err)
	}
	start, err := parse.ParseClock(st.WorkStart)
	if err != nil {
		return nil, fmt.Errorf("staff %s work start: %w", st.ID, err)
	}
	end, err := parse.ParseClock(st.WorkEnd)
	if err != nil {
		return nil, fmt.Errorf("staff %s work end: %w", st.ID, err)
	}
	if end <= start {
		return nil, fmt.Errorf("staff %s works %s-%s: end is not after start", st.ID, st.WorkStart, st.WorkEnd)
	}
	return &shift{active: st.Active, days: days, start: start, end: end}, nil
}
