package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock — управляемый источник времени
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func TestClock_CountsFromStart(t *testing.T) {
	fc := newFakeClock()
	fc.Advance(time.Minute)
	c := NewClock(fc.Now)
	assert.Zero(t, c.Elapsed())

	fc.Advance(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Elapsed())

	fc.Advance(60 * time.Second)
	assert.Equal(t, 63*time.Second, c.Elapsed())
}

func TestClock_DefaultsToWallTime(t *testing.T) {
	c := NewClock(nil)
	assert.GreaterOrEqual(t, c.Elapsed(), time.Duration(0))
}
