package videocast

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// NeedDataFunc fills buf in place with one raw frame in the configured pixel
// format. buf has Config.FrameSize bytes, belongs to the backend and must not
// be retained after the call. timestampNs is the logical presentation time
// of the frame: n * (1s / FPS) for the n-th call.
type NeedDataFunc func(buf []byte, timestampNs int64)

// RuntimeErrorFunc receives engine faults. It may be called from an engine
// goroutine and must be safe for concurrent use.
type RuntimeErrorFunc func(message string)

// SessionState is the lifecycle state of a backend loop.
type SessionState int32

const (
	StateIdle     SessionState = iota // Not started
	StateRunning                      // Requesting and sending frames
	StateStopping                     // Stop requested, loop not yet exited
	StateStopped                      // Loop exited, resources released or being released
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Backend runs the capture, encode and send loop of a session.
type Backend interface {
	// Start runs the loop and blocks until Stop is observed and all
	// resources are released. A non-nil error means the loop could not
	// start or the engine halted. Only one Start may run at a time.
	Start(cfg Config, onNeedData NeedDataFunc, onError RuntimeErrorFunc) error

	// Stop requests cancellation. It never blocks and may be called from
	// any goroutine, any number of times.
	Stop()

	// State returns the current lifecycle state.
	State() SessionState

	// Stats returns a snapshot of the loop counters.
	Stats() Stats
}

// lifecycle is the state machine shared by the built-in backends.
type lifecycle struct {
	state  atomic.Int32
	active atomic.Bool
}

// enter claims the backend for one Start call.
func (l *lifecycle) enter() error {
	if !l.active.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	l.state.CompareAndSwap(int32(StateStopped), int32(StateIdle))
	return nil
}

// run moves Idle to Running. It fails if Stop came first.
func (l *lifecycle) run() bool {
	return l.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
}

// running reports whether the loop should request another frame.
func (l *lifecycle) running() bool {
	return SessionState(l.state.Load()) == StateRunning
}

// stopped marks the loop as exited. Resources may be released after it.
func (l *lifecycle) stopped() {
	l.state.Store(int32(StateStopped))
}

// leave releases the claim taken by enter.
func (l *lifecycle) leave() {
	l.active.Store(false)
}

// stop is a single atomic transition to Stopping from Running or Idle.
func (l *lifecycle) stop() {
	if !l.state.CompareAndSwap(int32(StateRunning), int32(StateStopping)) {
		l.state.CompareAndSwap(int32(StateIdle), int32(StateStopping))
	}
}

func (l *lifecycle) current() SessionState {
	return SessionState(l.state.Load())
}

// errorReporter forwards engine faults to the caller once per occurrence.
type errorReporter struct {
	onError RuntimeErrorFunc
	stats   *statsRecorder
	log     *logrus.Entry
}

func (r errorReporter) report(function, message string) {
	r.stats.update(func(s *Stats) { s.EngineErrors++ })
	r.log.WithFields(logrus.Fields{
		"function": function,
		"error":    message,
	}).Error("Encoder engine error")
	if r.onError != nil {
		r.onError(message)
	}
}
