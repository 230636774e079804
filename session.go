package videocast

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// startPollInterval is how often Start checks whether the loop is running.
const startPollInterval = time.Millisecond

// claimed holds every backend whose loop was started through Start and has
// not yet exited.
var claimed sync.Map

// claim reserves b for one session. A backend already looping, whether
// through another session or a direct Start call, is rejected.
func claim(b Backend) error {
	if _, loaded := claimed.LoadOrStore(b, struct{}{}); loaded {
		return ErrAlreadyRunning
	}
	if st := b.State(); st == StateRunning || st == StateStopping {
		claimed.Delete(b)
		return ErrAlreadyRunning
	}
	return nil
}

// Option configures a Session.
type Option func(*sessionOptions) error

type sessionOptions struct {
	backend Backend
	engine  EngineFactory
	clock   Clock
	sender  Sender
	logger  *logrus.Entry
}

// WithBackend runs the session on b instead of the backend selected by codec.
// b must be comparable, such as a pointer, and drives one session at a time.
func WithBackend(b Backend) Option {
	return func(o *sessionOptions) error {
		if b == nil {
			return fmt.Errorf("%w: nil backend", ErrInvalidConfig)
		}
		o.backend = b
		return nil
	}
}

// WithEngineFactory sets the compression engine of the software backend.
func WithEngineFactory(f EngineFactory) Option {
	return func(o *sessionOptions) error {
		o.engine = f
		return nil
	}
}

// WithClock sets the clock used for frame pacing.
func WithClock(c Clock) Option {
	return func(o *sessionOptions) error {
		o.clock = c
		return nil
	}
}

// WithSender replaces the UDP socket the backend would open.
func WithSender(s Sender) Option {
	return func(o *sessionOptions) error {
		o.sender = s
		return nil
	}
}

// WithLogger sets the base logger. Session fields are added to it.
func WithLogger(l *logrus.Entry) Option {
	return func(o *sessionOptions) error {
		o.logger = l
		return nil
	}
}

// Session is one running stream.
//
// Stop returns immediately. Any resource the NeedDataFunc touches must stay
// valid until Wait returns or Done is closed, because a frame may still be
// requested while the loop winds down.
type Session struct {
	id      string
	config  Config
	backend Backend
	log     *logrus.Entry

	done chan struct{}
	err  error
}

// NewBackend returns the built-in backend for codec.
func NewBackend(codec Codec, engine EngineFactory, clock Clock, sender Sender, log *logrus.Entry) (Backend, error) {
	switch {
	case codec == CodecX264:
		return NewSoftwareBackend(SoftwareBackendConfig{
			Engine: engine,
			Clock:  clock,
			Sender: sender,
			Logger: log,
		}), nil
	case codec.UsesPipeline():
		if !IsPipelineAvailable() {
			return nil, fmt.Errorf("%w: %s needs the GStreamer backend", ErrBackendUnavailable, codec)
		}
		return NewPipelineBackend(PipelineBackendConfig{
			Clock:  clock,
			Sender: sender,
			Logger: log,
		}), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, int(codec))
	}
}

// Start validates cfg, selects a backend and runs its loop on a new
// goroutine. It returns once the loop is running, or with the startup
// fault if the loop could not begin.
func Start(cfg Config, onNeedData NeedDataFunc, onError RuntimeErrorFunc, opts ...Option) (*Session, error) {
	var o sessionOptions
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if onNeedData == nil {
		return nil, fmt.Errorf("%w: frame callback is required", ErrInvalidConfig)
	}

	id := uuid.New().String()
	base := o.logger
	if base == nil {
		base = logrus.NewEntry(logrus.StandardLogger())
	}
	log := base.WithFields(logrus.Fields{
		"session_id": id,
		"codec":      cfg.Codec.String(),
	})

	backend := o.backend
	if backend == nil {
		b, err := NewBackend(cfg.Codec, o.engine, o.clock, o.sender, log)
		if err != nil {
			return nil, err
		}
		backend = b
	}

	if err := claim(backend); err != nil {
		return nil, err
	}

	s := &Session{
		id:      id,
		config:  cfg,
		backend: backend,
		log:     log,
		done:    make(chan struct{}),
	}

	log.WithFields(logrus.Fields{
		"function":    "Start",
		"destination": fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		"resolution":  fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"fps":         cfg.FPS,
		"framing":     cfg.Framing.String(),
	}).Info("Starting session")

	go func() {
		defer close(s.done)
		defer claimed.Delete(backend)
		s.err = backend.Start(cfg, onNeedData, onError)
		if s.err != nil {
			log.WithFields(logrus.Fields{
				"function": "Session.run",
				"error":    s.err.Error(),
			}).Warn("Session loop exited with error")
		}
	}()

	ticker := time.NewTicker(startPollInterval)
	defer ticker.Stop()
	for {
		if backend.State() == StateRunning {
			return s, nil
		}
		select {
		case <-s.done:
			if s.err != nil {
				return nil, s.err
			}
			// Stopped before the first frame.
			return s, nil
		case <-ticker.C:
		}
	}
}

// ID returns the session identifier used in log fields.
func (s *Session) ID() string { return s.id }

// Config returns the validated session config.
func (s *Session) Config() Config { return s.config }

// State returns the backend lifecycle state.
func (s *Session) State() SessionState { return s.backend.State() }

// Stats returns a snapshot of the session counters.
func (s *Session) Stats() Stats { return s.backend.Stats() }

// Stop requests cancellation without waiting for the loop to exit.
// It is safe to call from any goroutine, including a signal handler
// goroutine, any number of times.
func (s *Session) Stop() {
	s.backend.Stop()
}

// Done is closed once the loop has exited and released its resources.
func (s *Session) Done() <-chan struct{} { return s.done }

// Wait blocks until the loop exits and returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}
