package videocast

import (
	"bytes"
	"errors"
	"testing"
)

// solidFrame builds a packed frame of one color in the layout of f.
func solidFrame(f PixelFormat, w, h int, r, g, b uint8) []byte {
	bpp := f.BytesPerPixel()
	l := layoutOf(f)
	buf := make([]byte, w*h*bpp)
	for i := 0; i < w*h; i++ {
		px := buf[i*bpp:]
		px[l.r], px[l.g], px[l.b] = r, g, b
		if l.a >= 0 {
			px[l.a] = 0xFF
		}
	}
	return buf
}

var packedFormats = []PixelFormat{
	PixelFormatRGB, PixelFormatBGR,
	PixelFormatRGBx, PixelFormatXRGB, PixelFormatBGRx, PixelFormatXBGR,
	PixelFormatRGBA, PixelFormatARGB, PixelFormatBGRA, PixelFormatABGR,
}

func TestConvertReferencePixels(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		y, u, v uint8
	}{
		{"white", 255, 255, 255, 235, 128, 128},
		{"black", 0, 0, 0, 16, 128, 128},
		{"red", 255, 0, 0, 82, 90, 240},
	}

	const w, h = 4, 2
	for _, format := range packedFormats {
		for _, tt := range tests {
			t.Run(format.String()+"/"+tt.name, func(t *testing.T) {
				raw := solidFrame(format, w, h, tt.r, tt.g, tt.b)
				dst := make([]byte, I420Size(w, h))

				mode, err := Convert(format, raw, w, h, dst)
				if err != nil {
					t.Fatalf("Convert failed: %v", err)
				}
				if mode != ConvertPacked {
					t.Errorf("mode = %s, want packed", mode)
				}

				yp, up, vp := i420Planes(dst, w, h)
				for i, got := range yp {
					if got != tt.y {
						t.Fatalf("Y[%d] = %d, want %d", i, got, tt.y)
					}
				}
				for i := range up {
					if up[i] != tt.u || vp[i] != tt.v {
						t.Fatalf("UV[%d] = (%d,%d), want (%d,%d)", i, up[i], vp[i], tt.u, tt.v)
					}
				}
			})
		}
	}
}

func TestConvertChromaAveraging(t *testing.T) {
	// Top row white, bottom row black: one 2x2 block averages to mid gray.
	raw := []byte{
		255, 255, 255, 255, 255, 255,
		0, 0, 0, 0, 0, 0,
	}
	dst := make([]byte, I420Size(2, 2))
	if _, err := Convert(PixelFormatRGB, raw, 2, 2, dst); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := []byte{235, 235, 16, 16, 128, 128}
	if !bytes.Equal(dst, want) {
		t.Errorf("dst = %v, want %v", dst, want)
	}
}

func TestConvertReversesInPlace(t *testing.T) {
	raw := []byte{0xFF, 10, 20, 30, 0xFF, 10, 20, 30, 0xFF, 10, 20, 30, 0xFF, 10, 20, 30}
	dst := make([]byte, I420Size(2, 2))
	if _, err := Convert(PixelFormatXRGB, raw, 2, 2, dst); err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !bytes.Equal(raw[:4], []byte{30, 20, 10, 0xFF}) {
		t.Errorf("first pixel = %v, want reversed [30 20 10 255]", raw[:4])
	}
	if want := lumaBT601(10, 20, 30); dst[0] != want {
		t.Errorf("Y = %d, want %d", dst[0], want)
	}
}

func TestConvertPlanarCopy(t *testing.T) {
	const w, h = 4, 4
	size := I420Size(w, h)
	for _, format := range []PixelFormat{PixelFormatI420, PixelFormatNV12, PixelFormatNV21, PixelFormatYV12, PixelFormatYUY2} {
		raw := make([]byte, format.FrameSize(w, h))
		for i := range raw {
			raw[i] = byte(i)
		}
		dst := make([]byte, size)

		mode, err := Convert(format, raw, w, h, dst)
		if err != nil {
			t.Fatalf("%s: Convert failed: %v", format, err)
		}
		if mode != ConvertCopy {
			t.Errorf("%s: mode = %s, want copy", format, mode)
		}
		if !bytes.Equal(dst, raw[:size]) {
			t.Errorf("%s: dst differs from the first %d raw bytes", format, size)
		}
	}
}

func TestConvertPassthrough(t *testing.T) {
	const w, h = 2, 2
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	dst := make([]byte, I420Size(w, h))

	mode, err := Convert(PixelFormat(99), raw, w, h, dst)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if mode != ConvertPassthrough {
		t.Errorf("mode = %s, want passthrough", mode)
	}
	if !bytes.Equal(dst, raw[:6]) {
		t.Errorf("dst = %v, want %v", dst, raw[:6])
	}
}

func TestConvertShortBuffers(t *testing.T) {
	const w, h = 4, 4

	_, err := Convert(PixelFormatRGB, make([]byte, w*h*3-1), w, h, make([]byte, I420Size(w, h)))
	if !errors.Is(err, ErrFrameTooSmall) {
		t.Errorf("short packed frame: err = %v, want ErrFrameTooSmall", err)
	}

	_, err = Convert(PixelFormatI420, make([]byte, I420Size(w, h)-1), w, h, make([]byte, I420Size(w, h)))
	if !errors.Is(err, ErrFrameTooSmall) {
		t.Errorf("short planar frame: err = %v, want ErrFrameTooSmall", err)
	}

	_, err = Convert(PixelFormatI420, make([]byte, I420Size(w, h)), w, h, make([]byte, 3))
	if !errors.Is(err, ErrBufferTooSmall) {
		t.Errorf("short dst: err = %v, want ErrBufferTooSmall", err)
	}
}

func BenchmarkConvertBGRx720p(b *testing.B) {
	const w, h = 1280, 720
	raw := solidFrame(PixelFormatBGRx, w, h, 40, 120, 200)
	dst := make([]byte, I420Size(w, h))
	b.SetBytes(int64(len(raw)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Convert(PixelFormatBGRx, raw, w, h, dst)
	}
}
