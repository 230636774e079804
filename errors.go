package videocast

import "errors"

// Common errors
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrUnknownCodec       = errors.New("unknown codec")
	ErrUnknownPixelFormat = errors.New("unknown pixel format")
	ErrUnknownFraming     = errors.New("unknown framing")
	ErrFrameTooSmall      = errors.New("raw frame smaller than pixel format requires")
	ErrBufferTooSmall     = errors.New("buffer too small")
	ErrAlreadyRunning     = errors.New("backend already running")
	ErrBackendUnavailable = errors.New("encoder backend not available")
	ErrEngineHalted       = errors.New("encoder engine halted")
	ErrEngineClosed       = errors.New("encoder engine closed")
)
