package admission

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckAndConsumeWithinLimit(t *testing.T) {
	l := NewLimiter(Config{Limit: 2, Window: time.Minute})

	assert.Equal(t, Admit, l.CheckAndConsume("north:1"))
	assert.Equal(t, Admit, l.CheckAndConsume("north:1"))
	assert.Equal(t, Reject, l.CheckAndConsume("north:1"))
	assert.Equal(t, Reject, l.CheckAndConsume("north:1"))
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewLimiter(Config{Limit: 1, Window: time.Minute})

	assert.Equal(t, Admit, l.CheckAndConsume("north:1"))
	assert.Equal(t, Reject, l.CheckAndConsume("north:1"))

	// A different user in the same court, and the same user in a different
	// court, both still have their full budget.
	assert.Equal(t, Admit, l.CheckAndConsume("north:2"))
	assert.Equal(t, Admit, l.CheckAndConsume("south:1"))
}

func TestWindowReset(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{Limit: 1, Window: time.Minute}, WithNow(func() time.Time { return now }))

	assert.Equal(t, Admit, l.CheckAndConsume("north:1"))
	assert.Equal(t, Reject, l.CheckAndConsume("north:1"))

	now = now.Add(time.Minute)
	assert.Equal(t, Admit, l.CheckAndConsume("north:1"), "a lapsed window starts fresh")
	assert.Equal(t, Reject, l.CheckAndConsume("north:1"))
}

func TestRejectionDoesNotExtendWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{Limit: 1, Window: time.Minute}, WithNow(func() time.Time { return now }))

	assert.Equal(t, Admit, l.CheckAndConsume("north:1"))
	now = now.Add(30 * time.Second)
	assert.Equal(t, Reject, l.CheckAndConsume("north:1"))

	// The window is anchored at the first admit, not the last attempt.
	now = now.Add(31 * time.Second)
	assert.Equal(t, Admit, l.CheckAndConsume("north:1"))
}

func TestSweep(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLimiter(Config{Limit: 5, Window: time.Minute}, WithNow(func() time.Time { return now }))

	l.CheckAndConsume("north:1")
	l.CheckAndConsume("south:2")
	assert.Equal(t, 0, l.Sweep())

	now = now.Add(2 * time.Minute)
	l.CheckAndConsume("east:3")
	assert.Equal(t, 2, l.Sweep())
}

func TestDefaults(t *testing.T) {
	l := NewLimiter(Config{})
	assert.Equal(t, 60, l.cfg.Limit)
	assert.Equal(t, time.Minute, l.cfg.Window)
}
