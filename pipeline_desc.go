package videocast

import (
	"fmt"
	"strings"
)

// Element names looked up in the launch description.
const (
	pipelineSrcName  = "src"
	pipelineSinkName = "sink"
)

// rawCaps returns the appsrc caps for the configured input layout.
// Unrecognized formats are announced as I420.
func rawCaps(cfg Config) string {
	format := cfg.PixelFormat.String()
	if _, known := pixelFormatNames[cfg.PixelFormat]; !known {
		format = PixelFormatI420.String()
	}
	return fmt.Sprintf("video/x-raw,format=%s,width=%d,height=%d,framerate=%d/1",
		format, cfg.Width, cfg.Height, cfg.FPS)
}

// encoderElement returns the encoder part of the launch description.
func encoderElement(cfg Config) (string, error) {
	switch cfg.Codec {
	case CodecX264Pipeline:
		// x264enc takes kbit/s
		el := fmt.Sprintf("x264enc tune=zerolatency speed-preset=ultrafast bitrate=%d byte-stream=true",
			cfg.Bitrate/1000)
		if cfg.KeyframeInterval > 0 {
			el += fmt.Sprintf(" key-int-max=%d", cfg.KeyframeInterval)
		}
		return el, nil
	case CodecOMXPipeline:
		el := fmt.Sprintf("omxh264enc control-rate=variable bitrate=%d", cfg.Bitrate)
		if cfg.KeyframeInterval > 0 {
			el += fmt.Sprintf(" iframeinterval=%d", cfg.KeyframeInterval)
		}
		return el + " ! video/x-h264,stream-format=byte-stream", nil
	default:
		return "", fmt.Errorf("%w: %s has no pipeline element", ErrUnknownCodec, cfg.Codec)
	}
}

// pipelineDescription builds the gst-launch description for cfg:
//
//	appsrc ! videoconvert ! video/x-raw,format=I420 ! <encoder> ! appsink
//
// appsrc is live, time-stamped, non-blocking and queues at most
// MaxInflightFrames raw frames.
func pipelineDescription(cfg Config) (string, error) {
	enc, err := encoderElement(cfg)
	if err != nil {
		return "", err
	}

	parts := []string{
		fmt.Sprintf(`appsrc name=%s is-live=true format=time stream-type=stream block=false max-bytes=%d caps="%s"`,
			pipelineSrcName, uint64(cfg.FrameSize)*uint64(cfg.MaxInflightFrames), rawCaps(cfg)),
		"videoconvert",
		"video/x-raw,format=I420",
		enc,
		fmt.Sprintf("appsink name=%s sync=false", pipelineSinkName),
	}
	return strings.Join(parts, " ! "), nil
}
