package videocast

import "sync/atomic"

// backpressure follows appsrc's need-data and enough-data signals. While the
// queue is full, frames are still requested so the timeline keeps moving,
// but they are discarded instead of pushed.
type backpressure struct {
	congested atomic.Bool
}

// need is the need-data signal: the queue has room again.
func (p *backpressure) need() { p.congested.Store(false) }

// enough is the enough-data signal: the queue is full.
func (p *backpressure) enough() { p.congested.Store(true) }

// admit reports whether a frame may be pushed. A refused frame is counted
// in FramesDropped.
func (p *backpressure) admit(stats *statsRecorder) bool {
	if !p.congested.Load() {
		return true
	}
	stats.update(func(s *Stats) { s.FramesDropped++ })
	return false
}
