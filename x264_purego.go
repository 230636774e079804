//go:build (darwin || linux) && !nox264

// x264 compression engine via libmedia_h264 using purego.

package videocast

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	mediaH264Once    sync.Once
	mediaH264Handle  uintptr
	mediaH264InitErr error
)

// libmedia_h264 function pointers
var (
	mediaH264EncoderCreate        func(width, height, fps, bitrateKbps, profile, threads int32) uint64
	mediaH264EncoderEncode        func(encoder uint64, yPlane, uPlane, vPlane uintptr, yStride, uvStride, forceKeyframe int32, outData uintptr, outCapacity int32, outFrameType, outPts, outDts uintptr) int32
	mediaH264EncoderMaxOutputSize func(encoder uint64) int32
	mediaH264EncoderDestroy       func(encoder uint64)

	mediaH264GetError         func() *byte
	mediaH264EncoderAvailable func() int32
)

// Constants from media_h264.h
const (
	mediaH264ProfileBaseline = 66
	mediaH264ProfileMain     = 77
	mediaH264ProfileHigh     = 100

	defaultEngineThreads = 4
)

// encodeOutputs is heap-allocated so purego output parameters do not point
// into a goroutine stack that may move during the call.
type encodeOutputs struct {
	FrameType int32
	PTS       int64
	DTS       int64
}

func h264ProfileToMedia(p H264Profile) int32 {
	switch p {
	case H264ProfileMain:
		return mediaH264ProfileMain
	case H264ProfileHigh:
		return mediaH264ProfileHigh
	default:
		return mediaH264ProfileBaseline
	}
}

func loadMediaH264() error {
	mediaH264Once.Do(func() {
		mediaH264InitErr = loadMediaH264Lib()
	})
	return mediaH264InitErr
}

func loadMediaH264Lib() error {
	var lastErr error
	for _, path := range getMediaH264LibPaths() {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		mediaH264Handle = handle
		loadMediaH264Symbols()
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("failed to load libmedia_h264: %w", lastErr)
	}
	return errors.New("libmedia_h264 not found in any standard location")
}

func getMediaH264LibPaths() []string {
	var paths []string

	libName := "libmedia_h264.so"
	if runtime.GOOS == "darwin" {
		libName = "libmedia_h264.dylib"
	}

	// Environment variable overrides (highest priority)
	if envPath := os.Getenv("VIDEOCAST_X264_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	if envPath := os.Getenv("MEDIA_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, filepath.Join(envPath, libName))
	}

	// Search relative to executable location
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	// Search relative to working directory
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, "build", libName),
			filepath.Join(wd, "..", "build", libName),
			filepath.Join(wd, "..", "..", "build", libName),
		)
	}

	// Search relative to source and module roots
	for _, root := range []string{findSourceRoot(), findModuleRoot()} {
		if root != "" {
			paths = append(paths,
				filepath.Join(root, "build", libName),
				filepath.Join(root, "build", "ffi", libName),
			)
		}
	}

	// System paths (lowest priority)
	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/opt/homebrew/lib/"+libName,
		)
	case "linux":
		paths = append(paths,
			libName,
			"/usr/local/lib/"+libName,
			"/usr/lib/"+libName,
		)
	}

	return paths
}

func loadMediaH264Symbols() {
	purego.RegisterLibFunc(&mediaH264EncoderCreate, mediaH264Handle, "media_h264_encoder_create")
	purego.RegisterLibFunc(&mediaH264EncoderEncode, mediaH264Handle, "media_h264_encoder_encode")
	purego.RegisterLibFunc(&mediaH264EncoderMaxOutputSize, mediaH264Handle, "media_h264_encoder_max_output_size")
	purego.RegisterLibFunc(&mediaH264EncoderDestroy, mediaH264Handle, "media_h264_encoder_destroy")
	purego.RegisterLibFunc(&mediaH264GetError, mediaH264Handle, "media_h264_get_error")
	purego.RegisterLibFunc(&mediaH264EncoderAvailable, mediaH264Handle, "media_h264_encoder_available")
}

// IsX264Available checks if libmedia_h264 is loadable and has an encoder.
func IsX264Available() bool {
	if err := loadMediaH264(); err != nil {
		return false
	}
	return mediaH264EncoderAvailable() != 0
}

func getH264Error() string {
	if msg := goString(mediaH264GetError()); msg != "" {
		return msg
	}
	return "unknown error"
}

// X264Engine is an Engine backed by x264 through libmedia_h264.
type X264Engine struct {
	config EngineConfig

	handle    uint64
	outputBuf []byte
	out       *encodeOutputs
	frames    int64
	units     [][]byte

	mu sync.Mutex
}

// NewX264Engine creates an x264 engine. KeyframeInterval forces an IDR
// every that many frames.
func NewX264Engine(config EngineConfig) (Engine, error) {
	if err := loadMediaH264(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	if mediaH264EncoderAvailable() == 0 {
		return nil, fmt.Errorf("%w: x264 not compiled into libmedia_h264", ErrBackendUnavailable)
	}

	threads := config.Threads
	if threads <= 0 {
		threads = defaultEngineThreads
	}
	bitrateKbps := config.Bitrate / 1000
	if bitrateKbps <= 0 {
		bitrateKbps = 1
	}

	handle := mediaH264EncoderCreate(
		int32(config.Width),
		int32(config.Height),
		int32(config.FPS),
		int32(bitrateKbps),
		h264ProfileToMedia(config.Profile),
		int32(threads),
	)
	if handle == 0 {
		return nil, fmt.Errorf("failed to create x264 encoder: %s", getH264Error())
	}

	maxOutput := mediaH264EncoderMaxOutputSize(handle)
	if maxOutput <= 0 {
		maxOutput = int32(I420Size(config.Width, config.Height))
	}

	return &X264Engine{
		config:    config,
		handle:    handle,
		outputBuf: make([]byte, maxOutput),
		out:       &encodeOutputs{},
		units:     make([][]byte, 0, 1),
	}, nil
}

// Encode implements Engine.
func (e *X264Engine) Encode(i420 []byte, _ int64) ([][]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle == 0 {
		return nil, ErrEngineClosed
	}
	if len(i420) < I420Size(e.config.Width, e.config.Height) {
		return nil, ErrFrameTooSmall
	}

	forceKeyframe := int32(0)
	if k := int64(e.config.KeyframeInterval); k > 0 && e.frames%k == 0 {
		forceKeyframe = 1
	}
	e.frames++

	yPlane, uPlane, vPlane := i420Planes(i420, e.config.Width, e.config.Height)
	n := mediaH264EncoderEncode(
		e.handle,
		uintptr(unsafe.Pointer(&yPlane[0])),
		uintptr(unsafe.Pointer(&uPlane[0])),
		uintptr(unsafe.Pointer(&vPlane[0])),
		int32(e.config.Width),
		int32(e.config.Width/2),
		forceKeyframe,
		uintptr(unsafe.Pointer(&e.outputBuf[0])),
		int32(len(e.outputBuf)),
		uintptr(unsafe.Pointer(&e.out.FrameType)),
		uintptr(unsafe.Pointer(&e.out.PTS)),
		uintptr(unsafe.Pointer(&e.out.DTS)),
	)
	runtime.KeepAlive(i420)

	if n < 0 {
		return nil, fmt.Errorf("x264 encode failed: %s", getH264Error())
	}
	if n == 0 {
		return nil, nil
	}

	e.units = append(e.units[:0], e.outputBuf[:n])
	return e.units, nil
}

// Close implements Engine.
func (e *X264Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle != 0 {
		mediaH264EncoderDestroy(e.handle)
		e.handle = 0
	}
	return nil
}
