package gif

import (
	"errors"

	"github.com/deepteams/gif/internal/container"
	"github.com/deepteams/gif/internal/lzw"
)

// Errors returned by the decoder. ErrDecode, ErrBadFile and ErrEarlyEOF are
// shared with the internal layers so errors.Is works across wrapping.
var (
	ErrDecode                 = lzw.ErrDecode
	ErrBadFile                = container.ErrBadFile
	ErrEarlyEOF               = container.ErrEarlyEOF
	ErrInvalidParam           = errors.New("gif: invalid parameter")
	ErrNoFrame                = errors.New("gif: no frame available")
	ErrBufferTooSmall         = errors.New("gif: scratch buffer too small")
	ErrInvalidFrameDimensions = errors.New("gif: invalid frame dimensions")
	ErrUnsupportedColorDepth  = errors.New("gif: unsupported color depth")
)

// ErrorKind is the closed classification of decoder failures, as reported
// to the error callback.
type ErrorKind int

const (
	KindDecode ErrorKind = iota
	KindInvalidParam
	KindBadFile
	KindEarlyEOF
	KindNoFrame
	KindBufferTooSmall
	KindInvalidFrameDimensions
	KindUnsupportedColorDepth
)

// String returns a human-readable kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindInvalidParam:
		return "invalid-param"
	case KindBadFile:
		return "bad-file"
	case KindEarlyEOF:
		return "early-eof"
	case KindNoFrame:
		return "no-frame"
	case KindBufferTooSmall:
		return "buffer-too-small"
	case KindInvalidFrameDimensions:
		return "invalid-frame-dimensions"
	case KindUnsupportedColorDepth:
		return "unsupported-color-depth"
	default:
		return "unknown"
	}
}

// KindOf classifies err into its ErrorKind. Unrecognised errors classify as
// decode faults.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidParam):
		return KindInvalidParam
	case errors.Is(err, ErrBadFile):
		return KindBadFile
	case errors.Is(err, ErrEarlyEOF):
		return KindEarlyEOF
	case errors.Is(err, ErrNoFrame):
		return KindNoFrame
	case errors.Is(err, ErrBufferTooSmall):
		return KindBufferTooSmall
	case errors.Is(err, ErrInvalidFrameDimensions):
		return KindInvalidFrameDimensions
	case errors.Is(err, ErrUnsupportedColorDepth):
		return KindUnsupportedColorDepth
	default:
		return KindDecode
	}
}

// ErrorCallback receives the kind and message of a failure just before the
// failing call returns. It is installed per decoder, never globally.
type ErrorCallback func(kind ErrorKind, msg string)
