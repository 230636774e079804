package videocast

import "fmt"

// ConvertMode reports which path Convert took for a frame.
type ConvertMode int

const (
	ConvertPacked      ConvertMode = iota // packed RGB family converted to I420
	ConvertCopy                           // 4:2:0 family copied unchanged
	ConvertPassthrough                    // unrecognized format copied as if it were I420
)

func (m ConvertMode) String() string {
	switch m {
	case ConvertPacked:
		return "packed"
	case ConvertCopy:
		return "copy"
	case ConvertPassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Convert writes the planar I420 form of raw into dst.
//
// dst must hold at least I420Size(width, height) bytes. Packed formats whose
// byte order is the reverse of RGBA or BGRA (xRGB, ARGB, xBGR, ABGR) are
// permuted in place inside raw before conversion, so raw is modified.
//
// Formats Convert does not recognize are not an error: the first
// I420Size bytes of raw are copied through and ConvertPassthrough is
// returned so the caller can flag the misconfiguration.
func Convert(format PixelFormat, raw []byte, width, height int, dst []byte) (ConvertMode, error) {
	size := I420Size(width, height)
	if len(dst) < size {
		return 0, fmt.Errorf("%w: dst %d < %d", ErrBufferTooSmall, len(dst), size)
	}

	switch format {
	case PixelFormatRGB, PixelFormatBGR,
		PixelFormatRGBx, PixelFormatRGBA, PixelFormatBGRx, PixelFormatBGRA,
		PixelFormatXRGB, PixelFormatARGB, PixelFormatXBGR, PixelFormatABGR:
	case PixelFormatI420, PixelFormatNV12, PixelFormatNV21, PixelFormatYV12, PixelFormatYUY2:
		if len(raw) < size {
			return 0, fmt.Errorf("%w: %s %d < %d", ErrFrameTooSmall, format, len(raw), size)
		}
		copy(dst, raw[:size])
		return ConvertCopy, nil
	default:
		if len(raw) < size {
			return 0, fmt.Errorf("%w: %s %d < %d", ErrFrameTooSmall, format, len(raw), size)
		}
		copy(dst, raw[:size])
		return ConvertPassthrough, nil
	}

	need := format.FrameSize(width, height)
	if len(raw) < need {
		return 0, fmt.Errorf("%w: %s %d < %d", ErrFrameTooSmall, format, len(raw), need)
	}

	switch format {
	case PixelFormatRGB:
		packedToI420(raw, width, height, 3, 0, 1, 2, dst)
	case PixelFormatBGR:
		packedToI420(raw, width, height, 3, 2, 1, 0, dst)
	case PixelFormatRGBx, PixelFormatRGBA:
		packedToI420(raw, width, height, 4, 0, 1, 2, dst)
	case PixelFormatBGRx, PixelFormatBGRA:
		packedToI420(raw, width, height, 4, 2, 1, 0, dst)
	case PixelFormatXRGB, PixelFormatARGB:
		// A R G B reversed is B G R A
		reverseBytes4(raw[:need])
		packedToI420(raw, width, height, 4, 2, 1, 0, dst)
	case PixelFormatXBGR, PixelFormatABGR:
		// A B G R reversed is R G B A
		reverseBytes4(raw[:need])
		packedToI420(raw, width, height, 4, 0, 1, 2, dst)
	}
	return ConvertPacked, nil
}

// reverseBytes4 reverses the byte order of every 4-byte pixel in place.
func reverseBytes4(buf []byte) {
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+3] = buf[i+3], buf[i]
		buf[i+1], buf[i+2] = buf[i+2], buf[i+1]
	}
}

// packedToI420 converts packed RGB samples at the given channel offsets.
// Chroma is taken from the average of each 2x2 block.
func packedToI420(src []byte, width, height, bpp, rOff, gOff, bOff int, dst []byte) {
	yPlane, uPlane, vPlane := i420Planes(dst, width, height)
	stride := width * bpp

	for j := 0; j < height; j++ {
		row := src[j*stride:]
		yRow := yPlane[j*width:]
		for i := 0; i < width; i++ {
			p := row[i*bpp:]
			yRow[i] = lumaBT601(int(p[rOff]), int(p[gOff]), int(p[bOff]))
		}
	}

	cw, ch := width/2, height/2
	for j := 0; j < ch; j++ {
		row0 := src[(2*j)*stride:]
		row1 := src[(2*j+1)*stride:]
		for i := 0; i < cw; i++ {
			a := row0[(2*i)*bpp:]
			b := row0[(2*i+1)*bpp:]
			c := row1[(2*i)*bpp:]
			d := row1[(2*i+1)*bpp:]
			r := (int(a[rOff]) + int(b[rOff]) + int(c[rOff]) + int(d[rOff]) + 2) >> 2
			g := (int(a[gOff]) + int(b[gOff]) + int(c[gOff]) + int(d[gOff]) + 2) >> 2
			bl := (int(a[bOff]) + int(b[bOff]) + int(c[bOff]) + int(d[bOff]) + 2) >> 2
			uPlane[j*cw+i], vPlane[j*cw+i] = chromaBT601(r, g, bl)
		}
	}
}

// lumaBT601 is the studio-range BT.601 luma transform, in [16, 235].
func lumaBT601(r, g, b int) uint8 {
	return uint8(((66*r + 129*g + 25*b + 128) >> 8) + 16)
}

// chromaBT601 is the studio-range BT.601 chroma transform, in [16, 240].
func chromaBT601(r, g, b int) (u, v uint8) {
	u = uint8(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
	v = uint8(((112*r - 94*g - 18*b + 128) >> 8) + 128)
	return
}
