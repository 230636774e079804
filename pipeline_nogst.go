//go:build nogst

package videocast

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// PipelineBackendConfig configures a PipelineBackend.
type PipelineBackendConfig struct {
	Clock  Clock
	Sender Sender
	Logger *logrus.Entry
}

// PipelineBackend is unavailable in builds without GStreamer.
type PipelineBackend struct {
	lifecycle
}

// NewPipelineBackend returns a backend whose Start always fails.
func NewPipelineBackend(PipelineBackendConfig) *PipelineBackend {
	return &PipelineBackend{}
}

// IsPipelineAvailable reports whether the GStreamer backend is built in.
func IsPipelineAvailable() bool { return false }

// Start implements Backend.
func (b *PipelineBackend) Start(Config, NeedDataFunc, RuntimeErrorFunc) error {
	return fmt.Errorf("%w: built without GStreamer", ErrBackendUnavailable)
}

// Stop implements Backend.
func (b *PipelineBackend) Stop() { b.stop() }

// State implements Backend.
func (b *PipelineBackend) State() SessionState { return b.current() }

// Stats implements Backend.
func (b *PipelineBackend) Stats() Stats { return Stats{} }
