package videocast

import (
	"sync"
	"testing"
	"time"
)

// fakeClock advances only when slept on, or by a fixed cost per Since call.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	cost   time.Duration // work attributed to each tick
	sleeps []time.Duration
}

func newFakeClock(cost time.Duration) *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0), cost: cost}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.cost)
	return c.now.Sub(t)
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func TestPacingDelay(t *testing.T) {
	const interval = 40 * time.Millisecond
	tests := []struct {
		elapsed time.Duration
		want    time.Duration
	}{
		{0, interval},
		{10 * time.Millisecond, 30 * time.Millisecond},
		{39 * time.Millisecond, time.Millisecond},
		{interval, 0},
		{55 * time.Millisecond, 0},
		{-time.Millisecond, 0},
	}
	for _, tt := range tests {
		if got := pacingDelay(interval, tt.elapsed); got != tt.want {
			t.Errorf("pacingDelay(%v, %v) = %v, want %v", interval, tt.elapsed, got, tt.want)
		}
	}
}

func TestFramePacerTimestamps(t *testing.T) {
	clock := newFakeClock(15 * time.Millisecond)
	p := newFramePacer(clock, 25)

	for n := int64(0); n < 5; n++ {
		ts := p.begin()
		if want := n * int64(40*time.Millisecond); ts != want {
			t.Errorf("tick %d: timestamp = %d, want %d", n, ts, want)
		}
		p.end()
	}

	for i, d := range clock.slept() {
		if d != 25*time.Millisecond {
			t.Errorf("sleep %d = %v, want 25ms", i, d)
		}
	}
}

func TestFramePacerOverrun(t *testing.T) {
	clock := newFakeClock(60 * time.Millisecond)
	p := newFramePacer(clock, 25)

	for n := int64(0); n < 3; n++ {
		if ts := p.begin(); ts != n*int64(40*time.Millisecond) {
			t.Errorf("tick %d: timestamp = %d, overrun must not shift the timeline", n, ts)
		}
		p.end()
	}
	if s := clock.slept(); len(s) != 0 {
		t.Errorf("overrunning ticks slept %v, want no sleep", s)
	}
}
