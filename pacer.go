package videocast

import "time"

// Clock abstracts wall time for the pacing loop.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	Sleep(d time.Duration)
}

// SystemClock uses the standard library time functions.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Sleep pauses the current goroutine for d.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// pacingDelay returns how long to sleep after a tick whose work took
// elapsed: the remainder of interval, or zero once the tick has overrun.
// There is no catch-up for overruns.
func pacingDelay(interval, elapsed time.Duration) time.Duration {
	if elapsed < 0 || elapsed >= interval {
		return 0
	}
	return interval - elapsed
}

// framePacer holds the loop at one tick per interval and hands out
// logical timestamps n*interval, independent of how long ticks take.
type framePacer struct {
	clock    Clock
	interval time.Duration
	n        int64
	start    time.Time
}

func newFramePacer(clock Clock, fps int) *framePacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &framePacer{clock: clock, interval: time.Second / time.Duration(fps)}
}

// begin marks the start of a tick and returns its timestamp in nanoseconds.
func (p *framePacer) begin() int64 {
	p.start = p.clock.Now()
	ts := p.n * int64(p.interval)
	p.n++
	return ts
}

// end sleeps for whatever is left of the current tick.
func (p *framePacer) end() {
	if d := pacingDelay(p.interval, p.clock.Since(p.start)); d > 0 {
		p.clock.Sleep(d)
	}
}
