package videocast

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SoftwareBackendConfig configures a SoftwareBackend.
type SoftwareBackendConfig struct {
	Engine EngineFactory // nil: NewX264Engine
	Clock  Clock         // nil: SystemClock
	Sender Sender        // nil: a UDP socket to Config.Host:Config.Port
	Logger *logrus.Entry // nil: the standard logrus logger
}

// SoftwareBackend drives the compression engine directly. Every tick runs
// request, convert, encode, packetize and send on the goroutine that called
// Start, then sleeps for the rest of the frame interval.
type SoftwareBackend struct {
	lifecycle

	engine EngineFactory
	clock  Clock
	sender Sender
	log    *logrus.Entry

	stats statsRecorder
}

// NewSoftwareBackend creates a software backend.
func NewSoftwareBackend(config SoftwareBackendConfig) *SoftwareBackend {
	b := &SoftwareBackend{
		engine: config.Engine,
		clock:  config.Clock,
		sender: config.Sender,
		log:    config.Logger,
	}
	if b.engine == nil {
		b.engine = NewX264Engine
	}
	if b.clock == nil {
		b.clock = SystemClock{}
	}
	if b.log == nil {
		b.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return b
}

// Start implements Backend.
func (b *SoftwareBackend) Start(cfg Config, onNeedData NeedDataFunc, onError RuntimeErrorFunc) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	b.stats.reset()

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		b.stopped()
		return err
	}
	if onNeedData == nil {
		b.stopped()
		return fmt.Errorf("%w: frame callback is required", ErrInvalidConfig)
	}

	log := b.log.WithFields(logrus.Fields{
		"backend": "software",
		"codec":   cfg.Codec.String(),
	})

	sender := b.sender
	if sender == nil {
		s, err := NewUDPSender(cfg.Host, cfg.Port)
		if err != nil {
			b.stopped()
			return err
		}
		defer s.Close()
		sender = s
	}

	framer, err := NewFramer(cfg.Framing, uuid.New().ID(), cfg.RTPPayloadType)
	if err != nil {
		b.stopped()
		return err
	}

	engine, err := b.engine(engineConfigFrom(cfg))
	if err != nil {
		b.stopped()
		log.WithFields(logrus.Fields{
			"function": "SoftwareBackend.Start",
			"error":    err.Error(),
		}).Error("Failed to create encoder engine")
		return fmt.Errorf("create engine: %w", err)
	}
	defer engine.Close()

	raw := make([]byte, cfg.FrameSize)
	yuv := make([]byte, I420Size(cfg.Width, cfg.Height))
	au := make([]byte, 0, len(yuv))

	out := newOutput(cfg.Codec, framer, sender, &b.stats, log)
	reporter := errorReporter{onError: onError, stats: &b.stats, log: log}
	pacer := newFramePacer(b.clock, cfg.FPS)

	if b.run() {
		log.WithFields(logrus.Fields{
			"function":     "SoftwareBackend.Start",
			"width":        cfg.Width,
			"height":       cfg.Height,
			"fps":          cfg.FPS,
			"pixel_format": cfg.PixelFormat.String(),
		}).Info("Software encode loop running")
	}

	var loopErr error
	warnedPassthrough := false
	for b.running() {
		ts := pacer.begin()

		onNeedData(raw, ts)
		b.stats.update(func(s *Stats) { s.FramesRequested++ })

		mode, err := Convert(cfg.PixelFormat, raw, cfg.Width, cfg.Height, yuv)
		if err != nil {
			reporter.report("SoftwareBackend.Start", err.Error())
			pacer.end()
			continue
		}
		if mode == ConvertPassthrough && !warnedPassthrough {
			warnedPassthrough = true
			log.WithField("pixel_format", int(cfg.PixelFormat)).
				Warn("Unrecognized pixel format, copying raw frames to the encoder as I420")
		}

		units, err := engine.Encode(yuv, ts)
		if err != nil {
			if errors.Is(err, ErrEngineClosed) {
				reporter.report("SoftwareBackend.Start", err.Error())
				loopErr = fmt.Errorf("%w: %w", ErrEngineHalted, err)
				break
			}
			reporter.report("SoftwareBackend.Start", err.Error())
			pacer.end()
			continue
		}
		b.stats.update(func(s *Stats) { s.FramesEncoded++ })

		au = au[:0]
		for _, u := range units {
			au = append(au, u...)
		}
		out.emit(au, ts)

		log.WithField("timestamp", ts).Debug("Frame sent")
		pacer.end()
	}

	b.stopped()
	log.WithFields(logrus.Fields{
		"function": "SoftwareBackend.Start",
		"frames":   b.stats.snapshot().FramesEncoded,
	}).Info("Software encode loop stopped")
	return loopErr
}

// Stop implements Backend.
func (b *SoftwareBackend) Stop() { b.stop() }

// State implements Backend.
func (b *SoftwareBackend) State() SessionState { return b.current() }

// Stats implements Backend.
func (b *SoftwareBackend) Stats() Stats { return b.stats.snapshot() }
