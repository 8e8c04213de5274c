// Package container implements the GIF87a/89a container layer: the
// bounds-checked byte cursor and the parsers for the logical screen
// descriptor, image descriptors and extension blocks.
package container

import (
	"encoding/binary"
	"errors"
)

// Block separators and extension labels.
const (
	SepExtension = 0x21 // '!' introduces an extension block
	SepImage     = 0x2C // ',' introduces an image descriptor
	SepTrailer   = 0x3B // ';' ends the data stream

	LabelPlainText      = 0x01
	LabelGraphicControl = 0xF9
	LabelComment        = 0xFE
	LabelApplication    = 0xFF
)

// Fixed structure sizes.
const (
	SignatureSize = 6  // "GIF87a" / "GIF89a"
	HeaderSize    = 13 // signature + logical screen descriptor
	AppBlockSize  = 11 // application identifier + authentication code
	GCBlockSize   = 4  // graphic control extension payload
)

// Packed-field masks. The logical screen descriptor and the image
// descriptor share the low three bits for the colour table size.
const (
	ColorTableFlag = 0x80 // global (LSD) or local (image descriptor) table present
	InterlaceFlag  = 0x40 // image descriptor only
	TableSizeMask  = 0x07
)

// Disposal methods carried in the graphic control packed field.
const (
	DisposalNone       = 0
	DisposalKeep       = 1
	DisposalBackground = 2
	DisposalPrevious   = 3
)

// Common errors. Callers wrap these with detail via fmt.Errorf("%w: ...").
var (
	ErrEarlyEOF = errors.New("gif: unexpected end of data")
	ErrBadFile  = errors.New("gif: malformed file")
)

// ReadLE16 reads a little-endian uint16 from data.
func ReadLE16(data []byte) uint16 {
	return binary.LittleEndian.Uint16(data)
}

// PutLE16 writes a little-endian uint16 to data.
func PutLE16(data []byte, v uint16) {
	binary.LittleEndian.PutUint16(data, v)
}
