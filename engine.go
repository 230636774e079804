package videocast

import "strings"

// H264Profile selects the H.264 profile used by the software engine.
type H264Profile int

const (
	H264ProfileBaseline H264Profile = iota
	H264ProfileMain
	H264ProfileHigh
)

func (p H264Profile) String() string {
	switch p {
	case H264ProfileMain:
		return "main"
	case H264ProfileHigh:
		return "high"
	default:
		return "baseline"
	}
}

// parseH264Profile maps a profile name to H264Profile; unknown names are baseline.
func parseH264Profile(s string) H264Profile {
	switch strings.ToLower(s) {
	case "main":
		return H264ProfileMain
	case "high":
		return H264ProfileHigh
	default:
		return H264ProfileBaseline
	}
}

// EngineConfig configures a compression engine for the software backend.
type EngineConfig struct {
	Width            int
	Height           int
	FPS              int
	Bitrate          int // bit/s
	KeyframeInterval int // frames between forced keyframes, 0 = engine default
	Profile          H264Profile
	Threads          int // 0 = engine default
}

// Engine compresses planar I420 frames into Annex-B sub-units.
type Engine interface {
	// Encode compresses one frame. The returned sub-units are in bitstream
	// order and stay valid until the next call. An engine may buffer and
	// return nothing for a frame. Encode returns ErrEngineClosed once the
	// engine can no longer produce output.
	Encode(i420 []byte, timestampNs int64) ([][]byte, error)

	// Close releases the engine.
	Close() error
}

// EngineFactory creates the Engine for a session.
type EngineFactory func(cfg EngineConfig) (Engine, error)

func engineConfigFrom(cfg Config) EngineConfig {
	return EngineConfig{
		Width:            cfg.Width,
		Height:           cfg.Height,
		FPS:              cfg.FPS,
		Bitrate:          cfg.Bitrate,
		KeyframeInterval: cfg.KeyframeInterval,
		Profile:          parseH264Profile(cfg.EncoderProfile),
	}
}
