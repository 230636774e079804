package videocast

import "math"

// PatternType defines the type of test pattern to generate.
type PatternType int

const (
	PatternColorBars    PatternType = iota // SMPTE color bars
	PatternGradient                        // Horizontal gradient
	PatternCheckerboard                    // Checkerboard pattern
	PatternSolidColor                      // Solid color
	PatternMovingBox                       // Moving box (animated)
)

func (p PatternType) String() string {
	switch p {
	case PatternColorBars:
		return "ColorBars"
	case PatternGradient:
		return "Gradient"
	case PatternCheckerboard:
		return "Checkerboard"
	case PatternSolidColor:
		return "SolidColor"
	case PatternMovingBox:
		return "MovingBox"
	default:
		return "Unknown"
	}
}

// TestPatternConfig configures a test pattern frame supplier.
type TestPatternConfig struct {
	Width    int         // Frame width (default: 1280)
	Height   int         // Frame height (default: 720)
	Format   PixelFormat // Layout written into the frame (default: I420)
	Pattern  PatternType // Pattern type (default: ColorBars)
	Animated bool        // Scroll static patterns (MovingBox always animates)

	// For SolidColor pattern
	SolidR, SolidG, SolidB uint8

	// For Checkerboard pattern
	CheckerSize int // Size of each checker square (default: 32)
}

// DefaultTestPatternConfig returns a default test pattern configuration.
func DefaultTestPatternConfig() TestPatternConfig {
	return TestPatternConfig{
		Width:       1280,
		Height:      720,
		Format:      PixelFormatI420,
		Pattern:     PatternColorBars,
		CheckerSize: 32,
	}
}

// TestPattern writes synthetic frames in any supported pixel format.
// Its Fill method is a NeedDataFunc. It is not safe for concurrent use.
type TestPattern struct {
	config TestPatternConfig
	frame  uint64
	layout channelLayout
}

// NewTestPattern creates a test pattern supplier.
func NewTestPattern(config TestPatternConfig) *TestPattern {
	if config.Width <= 0 {
		config.Width = 1280
	}
	if config.Height <= 0 {
		config.Height = 720
	}
	if config.CheckerSize <= 0 {
		config.CheckerSize = 32
	}
	return &TestPattern{
		config: config,
		layout: layoutOf(config.Format),
	}
}

// FrameSize returns the buffer size Fill expects.
func (p *TestPattern) FrameSize() int {
	return p.config.Format.FrameSize(p.config.Width, p.config.Height)
}

// Fill writes the next frame into buf. It satisfies NeedDataFunc.
func (p *TestPattern) Fill(buf []byte, _ int64) {
	if len(buf) < p.FrameSize() {
		return
	}
	w, h := p.config.Width, p.config.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b := p.color(x, y)
			p.write(buf, x, y, r, g, b)
		}
	}
	p.frame++
}

// SMPTE color bars (simplified 8-bar pattern)
var colorBarsRGB = [][3]uint8{
	{192, 192, 192}, // White (75%)
	{192, 192, 0},   // Yellow
	{0, 192, 192},   // Cyan
	{0, 192, 0},     // Green
	{192, 0, 192},   // Magenta
	{192, 0, 0},     // Red
	{0, 0, 192},     // Blue
	{16, 16, 16},    // Black
}

func (p *TestPattern) color(x, y int) (r, g, b uint8) {
	w, h := p.config.Width, p.config.Height
	shift := 0
	if p.config.Animated {
		shift = int(p.frame * 4)
	}

	switch p.config.Pattern {
	case PatternGradient:
		v := uint8(((x + shift) % w) * 255 / w)
		return v, v, v
	case PatternCheckerboard:
		size := p.config.CheckerSize
		if ((x+shift)/size+y/size)%2 == 0 {
			return 255, 255, 255
		}
		return 0, 0, 0
	case PatternSolidColor:
		return p.config.SolidR, p.config.SolidG, p.config.SolidB
	case PatternMovingBox:
		const boxSize = 100
		radius := float64(min(w, h)) / 4
		angle := float64(p.frame) * 0.05 // Radians per frame
		boxX := w/2 + int(radius*math.Cos(angle)) - boxSize/2
		boxY := h/2 + int(radius*math.Sin(angle)) - boxSize/2
		if x >= boxX && x < boxX+boxSize && y >= boxY && y < boxY+boxSize {
			return 255, 255, 255
		}
		return 0, 0, 0
	default:
		barWidth := max(w/8, 1)
		barIdx := min((x+shift)%w/barWidth, 7)
		c := colorBarsRGB[barIdx]
		return c[0], c[1], c[2]
	}
}

// channelLayout gives the byte offsets of each channel in a packed pixel.
// a is -1 when the format has no alpha or padding byte.
type channelLayout struct {
	r, g, b, a int
}

func layoutOf(f PixelFormat) channelLayout {
	switch f {
	case PixelFormatRGB:
		return channelLayout{0, 1, 2, -1}
	case PixelFormatBGR:
		return channelLayout{2, 1, 0, -1}
	case PixelFormatRGBx, PixelFormatRGBA:
		return channelLayout{0, 1, 2, 3}
	case PixelFormatXRGB, PixelFormatARGB:
		return channelLayout{1, 2, 3, 0}
	case PixelFormatBGRx, PixelFormatBGRA:
		return channelLayout{2, 1, 0, 3}
	case PixelFormatXBGR, PixelFormatABGR:
		return channelLayout{3, 2, 1, 0}
	default:
		return channelLayout{}
	}
}

func (p *TestPattern) write(buf []byte, x, y int, r, g, b uint8) {
	w, h := p.config.Width, p.config.Height

	if bpp := p.config.Format.BytesPerPixel(); bpp > 0 {
		px := buf[(y*w+x)*bpp:]
		px[p.layout.r], px[p.layout.g], px[p.layout.b] = r, g, b
		if p.layout.a >= 0 {
			px[p.layout.a] = 0xFF
		}
		return
	}

	yv, u, v := rgbToYUV(r, g, b)

	if p.config.Format == PixelFormatYUY2 {
		// Y0 U Y1 V, chroma from the even pixel of each pair
		base := (y*w + x&^1) * 2
		buf[base+(x&1)*2] = yv
		if x%2 == 0 {
			buf[base+1] = u
			buf[base+3] = v
		}
		return
	}

	ySize := w * h
	buf[y*w+x] = yv
	if x%2 != 0 || y%2 != 0 {
		return
	}
	c := (y/2)*(w/2) + x/2
	q := ySize / 4
	switch p.config.Format {
	case PixelFormatYV12:
		buf[ySize+c], buf[ySize+q+c] = v, u
	case PixelFormatNV12:
		buf[ySize+2*c], buf[ySize+2*c+1] = u, v
	case PixelFormatNV21:
		buf[ySize+2*c], buf[ySize+2*c+1] = v, u
	default:
		buf[ySize+c], buf[ySize+q+c] = u, v
	}
}

// rgbToYUV applies the same BT.601 transform Convert uses for packed input.
func rgbToYUV(r, g, b uint8) (y, u, v uint8) {
	y = lumaBT601(int(r), int(g), int(b))
	u, v = chromaBT601(int(r), int(g), int(b))
	return
}
