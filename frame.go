// Raw frame layouts accepted by the encoder backends.

package videocast

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PixelFormat identifies the layout of the raw frames a NeedDataFunc fills.
type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota

	// Packed, 3 bytes per pixel
	PixelFormatRGB
	PixelFormatBGR

	// Packed, 4 bytes per pixel ("x" is an ignored padding byte)
	PixelFormatRGBx
	PixelFormatXRGB
	PixelFormatBGRx
	PixelFormatXBGR
	PixelFormatRGBA
	PixelFormatARGB
	PixelFormatBGRA
	PixelFormatABGR

	// Already 4:2:0 (or handed to the engine as-is)
	PixelFormatI420
	PixelFormatNV12
	PixelFormatNV21
	PixelFormatYV12
	PixelFormatYUY2
)

var pixelFormatNames = map[PixelFormat]string{
	PixelFormatRGB:  "RGB",
	PixelFormatBGR:  "BGR",
	PixelFormatRGBx: "RGBx",
	PixelFormatXRGB: "xRGB",
	PixelFormatBGRx: "BGRx",
	PixelFormatXBGR: "xBGR",
	PixelFormatRGBA: "RGBA",
	PixelFormatARGB: "ARGB",
	PixelFormatBGRA: "BGRA",
	PixelFormatABGR: "ABGR",
	PixelFormatI420: "I420",
	PixelFormatNV12: "NV12",
	PixelFormatNV21: "NV21",
	PixelFormatYV12: "YV12",
	PixelFormatYUY2: "YUY2",
}

func (p PixelFormat) String() string {
	if name, ok := pixelFormatNames[p]; ok {
		return name
	}
	return "Unknown"
}

// ParsePixelFormat maps a GStreamer-style format name ("I420", "BGRx", ...)
// to a PixelFormat. Matching is exact first and then case-insensitive.
func ParsePixelFormat(s string) (PixelFormat, error) {
	for p, name := range pixelFormatNames {
		if name == s {
			return p, nil
		}
	}
	for p, name := range pixelFormatNames {
		if strings.EqualFold(name, s) {
			return p, nil
		}
	}
	return PixelFormatUnknown, fmt.Errorf("%w: %q", ErrUnknownPixelFormat, s)
}

// BytesPerPixel returns the pixel stride of packed formats and 0 for planar ones.
func (p PixelFormat) BytesPerPixel() int {
	switch p {
	case PixelFormatRGB, PixelFormatBGR:
		return 3
	case PixelFormatRGBx, PixelFormatXRGB, PixelFormatBGRx, PixelFormatXBGR,
		PixelFormatRGBA, PixelFormatARGB, PixelFormatBGRA, PixelFormatABGR:
		return 4
	default:
		return 0
	}
}

// IsPacked reports whether the format is packed RGB and needs conversion
// before it reaches a raw 4:2:0 encoder.
func (p PixelFormat) IsPacked() bool {
	return p.BytesPerPixel() != 0
}

// FrameSize returns the natural raw frame size in bytes for this format.
// Unknown formats are sized as I420.
func (p PixelFormat) FrameSize(width, height int) int {
	switch {
	case p.IsPacked():
		return width * height * p.BytesPerPixel()
	case p == PixelFormatYUY2:
		return width * height * 2
	default:
		return I420Size(width, height)
	}
}

// MarshalYAML encodes the format by name.
func (p PixelFormat) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// UnmarshalYAML decodes a format name.
func (p *PixelFormat) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParsePixelFormat(value.Value)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// I420Size returns the total buffer size needed for an I420 frame.
func I420Size(width, height int) int {
	// Y plane: width * height
	// U plane: (width/2) * (height/2)
	// V plane: (width/2) * (height/2)
	ySize := width * height
	uvSize := (width / 2) * (height / 2)
	return ySize + uvSize*2
}

// i420Planes splits an I420 buffer into its Y, U and V planes.
func i420Planes(buf []byte, width, height int) (y, u, v []byte) {
	ySize := width * height
	uvSize := (width / 2) * (height / 2)
	return buf[:ySize], buf[ySize : ySize+uvSize], buf[ySize+uvSize : ySize+2*uvSize]
}
