package videocast

import "testing"

func TestTestPatternFillsEveryFormat(t *testing.T) {
	const w, h = 32, 16
	formats := append([]PixelFormat{
		PixelFormatI420, PixelFormatNV12, PixelFormatNV21, PixelFormatYV12, PixelFormatYUY2,
	}, packedFormats...)

	for _, format := range formats {
		t.Run(format.String(), func(t *testing.T) {
			p := NewTestPattern(TestPatternConfig{Width: w, Height: h, Format: format, Pattern: PatternSolidColor, SolidR: 255, SolidG: 255, SolidB: 255})
			buf := make([]byte, p.FrameSize())
			if len(buf) != format.FrameSize(w, h) {
				t.Fatalf("FrameSize = %d, want %d", len(buf), format.FrameSize(w, h))
			}
			p.Fill(buf, 0)

			// White through the converter must come out at peak luma.
			dst := make([]byte, I420Size(w, h))
			if _, err := Convert(format, buf, w, h, dst); err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if format == PixelFormatYUY2 {
				if buf[0] != 235 || buf[1] != 128 {
					t.Errorf("YUY2 first pixel = %d %d, want 235 128", buf[0], buf[1])
				}
				return
			}
			if dst[0] != 235 {
				t.Errorf("Y = %d, want 235", dst[0])
			}
		})
	}
}

func TestTestPatternPackedLayout(t *testing.T) {
	p := NewTestPattern(TestPatternConfig{Width: 2, Height: 2, Format: PixelFormatARGB, Pattern: PatternSolidColor, SolidR: 1, SolidG: 2, SolidB: 3})
	buf := make([]byte, p.FrameSize())
	p.Fill(buf, 0)
	if buf[0] != 0xFF || buf[1] != 1 || buf[2] != 2 || buf[3] != 3 {
		t.Errorf("ARGB pixel = %v, want [255 1 2 3]", buf[:4])
	}
}

func TestTestPatternAnimates(t *testing.T) {
	p := NewTestPattern(TestPatternConfig{Width: 64, Height: 8, Format: PixelFormatI420, Pattern: PatternGradient, Animated: true})
	a := make([]byte, p.FrameSize())
	b := make([]byte, p.FrameSize())
	p.Fill(a, 0)
	p.Fill(b, 40_000_000)
	if string(a) == string(b) {
		t.Error("animated frames should differ")
	}
}

func TestTestPatternShortBuffer(t *testing.T) {
	p := NewTestPattern(DefaultTestPatternConfig())
	buf := make([]byte, 10)
	p.Fill(buf, 0) // must not panic
	for _, b := range buf {
		if b != 0 {
			t.Fatal("short buffer should be left untouched")
		}
	}
}

func TestRGBToYUV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		y, u, v uint8
	}{
		{"black", 0, 0, 0, 16, 128, 128},
		{"white", 255, 255, 255, 235, 128, 128},
		{"red", 255, 0, 0, 82, 90, 240},
	}
	for _, tt := range tests {
		if y, u, v := rgbToYUV(tt.r, tt.g, tt.b); y != tt.y || u != tt.u || v != tt.v {
			t.Errorf("%s: YUV = %d %d %d, want %d %d %d", tt.name, y, u, v, tt.y, tt.u, tt.v)
		}
	}
}

func TestTestPatternMatchesConvertedRGB(t *testing.T) {
	const w, h = 16, 8
	cfg := TestPatternConfig{Width: w, Height: h, Pattern: PatternSolidColor, SolidR: 255}

	cfg.Format = PixelFormatI420
	planar := NewTestPattern(cfg)
	direct := make([]byte, planar.FrameSize())
	planar.Fill(direct, 0)

	cfg.Format = PixelFormatRGB
	packed := NewTestPattern(cfg)
	rgb := make([]byte, packed.FrameSize())
	packed.Fill(rgb, 0)
	converted := make([]byte, I420Size(w, h))
	if _, err := Convert(PixelFormatRGB, rgb, w, h, converted); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if string(direct) != string(converted) {
		t.Errorf("I420 pattern Y/U/V = %d %d %d, converted RGB = %d %d %d",
			direct[0], direct[w*h], direct[w*h*5/4], converted[0], converted[w*h], converted[w*h*5/4])
	}
}
