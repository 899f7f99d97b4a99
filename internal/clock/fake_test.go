package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceFiresDueTimersInOrder(t *testing.T) {
	start := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)

	var fired []string
	c.AfterFunc(2*time.Minute, func() { fired = append(fired, "b") })
	c.AfterFunc(1*time.Minute, func() { fired = append(fired, "a") })
	c.AfterFunc(10*time.Minute, func() { fired = append(fired, "late") })

	c.Advance(5 * time.Minute)

	assert.Equal(t, []string{"a", "b"}, fired)
	assert.Equal(t, start.Add(5*time.Minute), c.Now())
	assert.Equal(t, 1, c.Pending())
}

func TestFake_StoppedTimerDoesNotFire(t *testing.T) {
	c := NewFake(time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC))

	called := false
	timer := c.AfterFunc(time.Minute, func() { called = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop reports already stopped")

	c.Advance(time.Hour)
	assert.False(t, called)
	assert.Equal(t, 0, c.Pending())
}

func TestFake_CallbackMayRearm(t *testing.T) {
	c := NewFake(time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC))

	count := 0
	var arm func()
	arm = func() {
		c.AfterFunc(time.Minute, func() {
			count++
			arm()
		})
	}
	arm()

	c.Advance(time.Minute)
	c.Advance(time.Minute)

	assert.Equal(t, 2, count)
	assert.Equal(t, 1, c.Pending())
}

func TestFake_SetNeverMovesBackwards(t *testing.T) {
	start := time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)
	c := NewFake(start)

	c.Set(start.Add(-time.Hour))
	assert.Equal(t, start, c.Now())

	c.Set(start.Add(6 * time.Minute))
	assert.Equal(t, start.Add(6*time.Minute), c.Now())
}
