package videocast

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes one streaming session. It is validated once by Start and
// not modified afterwards.
type Config struct {
	Codec       Codec       `yaml:"codec"`
	PixelFormat PixelFormat `yaml:"pixel_format"`
	Width       int         `yaml:"width"`
	Height      int         `yaml:"height"`
	FPS         int         `yaml:"fps"`

	// Bitrate is the target rate in bit/s. Engines configured in kbit/s
	// (x264enc and the x264 engine) receive Bitrate/1000.
	Bitrate int `yaml:"bitrate"`

	// KeyframeInterval is the maximum distance between keyframes, in frames.
	// Zero leaves the engine default.
	KeyframeInterval int `yaml:"keyframe_interval"`

	Host string `yaml:"host"` // IPv4 literal
	Port int    `yaml:"port"`

	// FrameSize is the raw frame buffer size handed to NeedDataFunc.
	// Zero means PixelFormat.FrameSize(Width, Height).
	FrameSize int `yaml:"frame_size"`

	// MaxInflightFrames bounds the pipeline input queue, in frames.
	MaxInflightFrames int `yaml:"max_inflight_frames"`

	Framing        Framing `yaml:"framing"`
	RTPPayloadType uint8   `yaml:"rtp_payload_type"`

	// EncoderProfile is the H.264 profile of the software engine:
	// baseline, main or high.
	EncoderProfile string `yaml:"encoder_profile"`
}

// DefaultConfig returns a 1280x800, 25 fps I420 session streaming to
// 127.0.0.1:9001 with the software x264 engine.
func DefaultConfig() Config {
	return Config{
		Codec:             CodecX264,
		PixelFormat:       PixelFormatI420,
		Width:             1280,
		Height:            800,
		FPS:               25,
		Bitrate:           1024000,
		KeyframeInterval:  25,
		Host:              "127.0.0.1",
		Port:              9001,
		MaxInflightFrames: 4,
		Framing:           FramingRaw,
		RTPPayloadType:    96,
		EncoderProfile:    "baseline",
	}
}

// WithDefaults returns a copy of c with unset optional fields filled in.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.FrameSize == 0 {
		c.FrameSize = c.PixelFormat.FrameSize(c.Width, c.Height)
	}
	if c.MaxInflightFrames <= 0 {
		c.MaxInflightFrames = def.MaxInflightFrames
	}
	if c.RTPPayloadType == 0 {
		c.RTPPayloadType = def.RTPPayloadType
	}
	if c.EncoderProfile == "" {
		c.EncoderProfile = def.EncoderProfile
	}
	return c
}

// Validate checks c and returns every problem found, wrapped in ErrInvalidConfig.
// Pixel formats are not checked: unrecognized ones stream in passthrough mode.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	switch c.Codec {
	case CodecX264Pipeline, CodecOMXPipeline, CodecX264:
	default:
		errs = append(errs, fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrUnknownCodec, int(c.Codec)))
	}
	if c.Width <= 0 || c.Height <= 0 {
		fail("dimensions %dx%d must be positive", c.Width, c.Height)
	} else if c.Width%2 != 0 || c.Height%2 != 0 {
		fail("dimensions %dx%d must be even for 4:2:0", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		fail("fps %d must be positive", c.FPS)
	}
	if c.Bitrate <= 0 {
		fail("bitrate %d must be positive", c.Bitrate)
	}
	if c.KeyframeInterval < 0 {
		fail("keyframe interval %d must not be negative", c.KeyframeInterval)
	}
	if c.Host == "" {
		fail("host is empty")
	} else if _, err := ResolveEndpoint(c.Host, c.Port); err != nil {
		errs = append(errs, err)
	}
	if c.Width > 0 && c.Height > 0 && c.FrameSize != 0 {
		if need := c.PixelFormat.FrameSize(c.Width, c.Height); c.FrameSize < need {
			fail("frame size %d smaller than %d needed by %s", c.FrameSize, need, c.PixelFormat)
		}
	}
	if c.Framing != FramingRaw && c.Framing != FramingRTP {
		errs = append(errs, fmt.Errorf("%w: %w: %d", ErrInvalidConfig, ErrUnknownFraming, int(c.Framing)))
	}

	return errors.Join(errs...)
}

// FrameInterval returns the duration of one tick.
func (c Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.FPS)
}

// LoadConfig reads a YAML config file. Fields missing from the file keep
// their DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}
