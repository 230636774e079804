//go:build !nogst

package videocast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

const busPollInterval = 50 * time.Millisecond

var gstInitOnce sync.Once

// PipelineBackendConfig configures a PipelineBackend.
type PipelineBackendConfig struct {
	Clock  Clock         // nil: SystemClock
	Sender Sender        // nil: a UDP socket to Config.Host:Config.Port
	Logger *logrus.Entry // nil: the standard logrus logger
}

// PipelineBackend pushes raw frames into a GStreamer pipeline and sends
// the compressed buffers the pipeline's appsink delivers. The appsink
// callback and the bus monitor run on GStreamer and monitor goroutines,
// not on the goroutine that called Start.
//
// Under backpressure (appsrc reports enough-data) frames are still
// requested, so the timeline keeps moving, but they are not pushed and are
// counted in Stats.FramesDropped.
type PipelineBackend struct {
	lifecycle

	clock  Clock
	sender Sender
	log    *logrus.Entry

	queue  backpressure
	halted atomic.Bool
	stats  statsRecorder
}

// NewPipelineBackend creates a GStreamer pipeline backend.
func NewPipelineBackend(config PipelineBackendConfig) *PipelineBackend {
	b := &PipelineBackend{
		clock:  config.Clock,
		sender: config.Sender,
		log:    config.Logger,
	}
	if b.clock == nil {
		b.clock = SystemClock{}
	}
	if b.log == nil {
		b.log = logrus.NewEntry(logrus.StandardLogger())
	}
	return b
}

// IsPipelineAvailable reports whether the GStreamer backend is built in.
func IsPipelineAvailable() bool { return true }

// Start implements Backend.
func (b *PipelineBackend) Start(cfg Config, onNeedData NeedDataFunc, onError RuntimeErrorFunc) error {
	if err := b.enter(); err != nil {
		return err
	}
	defer b.leave()
	b.stats.reset()
	b.queue.need()
	b.halted.Store(false)

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
		"backend": "pipeline",
		"codec":   cfg.Codec.String(),
	})

	desc, err := pipelineDescription(cfg)
	if err != nil {
		b.stopped()
		return err
	}

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

	gstInitOnce.Do(func() { gst.Init(nil) })

	pipeline, err := gst.NewPipelineFromString(desc)
	if err != nil {
		b.stopped()
		log.WithFields(logrus.Fields{
			"function":    "PipelineBackend.Start",
			"description": desc,
			"error":       err.Error(),
		}).Error("Failed to build pipeline")
		return fmt.Errorf("%w: build pipeline: %w", ErrBackendUnavailable, err)
	}
	defer pipeline.SetState(gst.StateNull)

	srcElem, err := pipeline.GetElementByName(pipelineSrcName)
	if err != nil {
		b.stopped()
		return fmt.Errorf("find appsrc: %w", err)
	}
	sinkElem, err := pipeline.GetElementByName(pipelineSinkName)
	if err != nil {
		b.stopped()
		return fmt.Errorf("find appsink: %w", err)
	}
	src := app.SrcFromElement(srcElem)
	sink := app.SinkFromElement(sinkElem)

	out := newOutput(cfg.Codec, framer, sender, &b.stats, log)
	reporter := errorReporter{onError: onError, stats: &b.stats, log: log}

	src.SetCallbacks(&app.SourceCallbacks{
		NeedDataFunc: func(_ *app.Source, _ uint) {
			b.queue.need()
		},
		EnoughDataFunc: func(_ *app.Source) {
			b.queue.enough()
		},
	})

	var sinkBuf []byte
	sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(s *app.Sink) gst.FlowReturn {
			sample := s.PullSample()
			if sample == nil {
				return gst.FlowOK
			}
			buffer := sample.GetBuffer()
			if buffer == nil {
				return gst.FlowOK
			}
			mapInfo := buffer.Map(gst.MapRead)
			data := mapInfo.Bytes()
			// Normalization rewrites in place, so work on a private copy.
			sinkBuf = append(sinkBuf[:0], data...)
			pts := buffer.PresentationTimestamp()
			buffer.Unmap()

			if pts < 0 {
				pts = 0
			}
			out.emit(sinkBuf, int64(pts))
			return gst.FlowOK
		},
	})

	if err := pipeline.SetState(gst.StatePlaying); err != nil {
		b.stopped()
		return fmt.Errorf("%w: start pipeline: %w", ErrBackendUnavailable, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var monitor sync.WaitGroup
	monitor.Add(1)
	go func() {
		defer monitor.Done()
		b.monitorBus(ctx, pipeline, reporter, log)
	}()

	if b.run() {
		log.WithFields(logrus.Fields{
			"function":     "PipelineBackend.Start",
			"width":        cfg.Width,
			"height":       cfg.Height,
			"fps":          cfg.FPS,
			"pixel_format": cfg.PixelFormat.String(),
		}).Info("Pipeline push loop running")
	}

	raw := make([]byte, cfg.FrameSize)
	pushSize := cfg.PixelFormat.FrameSize(cfg.Width, cfg.Height)
	pacer := newFramePacer(b.clock, cfg.FPS)
	if _, known := pixelFormatNames[cfg.PixelFormat]; !known {
		log.WithField("pixel_format", int(cfg.PixelFormat)).
			Warn("Unrecognized pixel format, pushing raw frames as I420")
	}

	for b.running() {
		ts := pacer.begin()

		onNeedData(raw, ts)
		b.stats.update(func(s *Stats) { s.FramesRequested++ })

		if !b.queue.admit(&b.stats) {
			log.WithField("timestamp", ts).Debug("Pipeline congested, frame dropped")
			pacer.end()
			continue
		}

		buffer := gst.NewBufferFromBytes(raw[:pushSize])
		buffer.SetPresentationTimestamp(time.Duration(ts))
		buffer.SetDuration(pacer.interval)
		if ret := src.PushBuffer(buffer); ret != gst.FlowOK {
			b.stats.update(func(s *Stats) { s.FramesDropped++ })
			log.WithFields(logrus.Fields{
				"timestamp": ts,
				"flow":      int(ret),
			}).Debug("Push refused, frame dropped")
		} else {
			b.stats.update(func(s *Stats) { s.FramesEncoded++ })
		}

		pacer.end()
	}

	b.stopped()
	src.EndStream()
	cancel()
	monitor.Wait()

	log.WithFields(logrus.Fields{
		"function": "PipelineBackend.Start",
		"frames":   b.stats.snapshot().FramesEncoded,
	}).Info("Pipeline push loop stopped")

	if b.halted.Load() {
		return ErrEngineHalted
	}
	return nil
}

// monitorBus reports pipeline errors and stops the loop on end of stream.
func (b *PipelineBackend) monitorBus(ctx context.Context, pipeline *gst.Pipeline, reporter errorReporter, log *logrus.Entry) {
	bus := pipeline.GetPipelineBus()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg := bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			log.WithField("debug", gerr.DebugString()).Debug("Pipeline error details")
			reporter.report("PipelineBackend.monitorBus", gerr.Error())
		case gst.MessageEOS:
			if b.running() {
				log.WithField("function", "PipelineBackend.monitorBus").Warn("Pipeline reached end of stream")
				reporter.report("PipelineBackend.monitorBus", "pipeline reached end of stream")
				b.halted.Store(true)
				b.stop()
			}
		}
	}
}

// Stop implements Backend.
func (b *PipelineBackend) Stop() { b.stop() }

// State implements Backend.
func (b *PipelineBackend) State() SessionState { return b.current() }

// Stats implements Backend.
func (b *PipelineBackend) Stats() Stats { return b.stats.snapshot() }
