//go:build !(darwin || linux) || nox264

package videocast

import "fmt"

// IsX264Available reports false: the x264 engine is not built in.
func IsX264Available() bool { return false }

// NewX264Engine always fails in builds without the x264 engine.
func NewX264Engine(EngineConfig) (Engine, error) {
	return nil, fmt.Errorf("%w: built without x264 engine", ErrBackendUnavailable)
}
