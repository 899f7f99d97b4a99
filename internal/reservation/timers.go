package reservation

import (
	"sync"
	"time"

	"salon-booking-backend/internal/clock"
)

// timerRegistry maps hold IDs to their pending expiration timers. It is the
// only in-process state the engine shares between goroutines.
type timerRegistry struct {
	mu     sync.Mutex
	timers map[string]clock.Timer
	closed bool
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{timers: make(map[string]clock.Timer)}
}

// arm schedules f after d under id. The lock is held while the timer is
// created so that a callback cannot run its remove before the entry exists.
func (r *timerRegistry) arm(c clock.Clock, id string, d time.Duration, f func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if old, ok := r.timers[id]; ok {
		old.Stop()
	}
	r.timers[id] = c.AfterFunc(d, f)
}

// cancel stops and forgets the timer of id, if any.
func (r *timerRegistry) cancel(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.timers[id]; ok {
		t.Stop()
		delete(r.timers, id)
	}
}

// remove forgets id without stopping it; used by the callback itself.
func (r *timerRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.timers, id)
}

func (r *timerRegistry) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.closed = true
}

func (r *timerRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}
