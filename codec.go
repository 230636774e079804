package videocast

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Codec identifies the compression engine used for a session.
type Codec int

const (
	CodecUnknown      Codec = iota // not set
	CodecX264Pipeline              // x264enc inside a GStreamer pipeline
	CodecOMXPipeline               // OpenMAX hardware encoder inside a GStreamer pipeline
	CodecX264                      // x264 driven directly, one frame per tick
)

func (c Codec) String() string {
	switch c {
	case CodecX264Pipeline:
		return "x264enc"
	case CodecOMXPipeline:
		return "omxh264enc"
	case CodecX264:
		return "x264"
	default:
		return "unknown"
	}
}

// ParseCodec maps a codec name to a Codec. Matching is case-insensitive.
func ParseCodec(s string) (Codec, error) {
	switch strings.ToLower(s) {
	case "x264enc":
		return CodecX264Pipeline, nil
	case "omxh264enc", "omx":
		return CodecOMXPipeline, nil
	case "x264":
		return CodecX264, nil
	default:
		return CodecUnknown, fmt.Errorf("%w: %q", ErrUnknownCodec, s)
	}
}

// UsesPipeline reports whether the codec runs inside a GStreamer pipeline.
func (c Codec) UsesPipeline() bool {
	return c == CodecX264Pipeline || c == CodecOMXPipeline
}

// MarshalYAML encodes the codec by name.
func (c Codec) MarshalYAML() (interface{}, error) {
	return c.String(), nil
}

// UnmarshalYAML decodes a codec name.
func (c *Codec) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseCodec(value.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Framing selects how access units are laid out on the wire.
type Framing int

const (
	FramingRaw Framing = iota // headerless Annex-B slices
	FramingRTP                // RFC 6184 RTP packets
)

func (f Framing) String() string {
	switch f {
	case FramingRaw:
		return "raw"
	case FramingRTP:
		return "rtp"
	default:
		return "unknown"
	}
}

// ParseFraming maps "raw" or "rtp" to a Framing.
func ParseFraming(s string) (Framing, error) {
	switch strings.ToLower(s) {
	case "", "raw":
		return FramingRaw, nil
	case "rtp":
		return FramingRTP, nil
	default:
		return FramingRaw, fmt.Errorf("%w: %q", ErrUnknownFraming, s)
	}
}

// MarshalYAML encodes the framing by name.
func (f Framing) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

// UnmarshalYAML decodes a framing name.
func (f *Framing) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseFraming(value.Value)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
