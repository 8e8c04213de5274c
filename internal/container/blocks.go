package container

import (
	"bytes"
	"fmt"
)

// ScreenDescriptor holds the parsed header and logical screen descriptor.
type ScreenDescriptor struct {
	Version        string // "87a" or "89a"
	Width          int
	Height         int
	HasGlobalTable bool
	TableSize      int // number of entries, power of two in [2,256]
	Background     byte
}

// ImageDescriptor holds a parsed image descriptor (the bytes after 0x2C).
type ImageDescriptor struct {
	X, Y          int
	Width, Height int
	Interlaced    bool
	HasLocalTable bool
	TableSize     int
}

// GraphicControl holds a parsed graphic control extension payload.
type GraphicControl struct {
	Disposal         byte
	HasTransparency  bool
	TransparentIndex byte
	DelayMS          int // wire value is in 1/100 s; stored here as milliseconds
}

// Netscape/Animexts application identifiers carrying the loop extension.
var (
	netscapeID = []byte("NETSCAPE2.0")
	animextsID = []byte("ANIMEXTS1.0")
)

// ParseHeader reads the 6-byte signature and the 7-byte logical screen
// descriptor. The pixel aspect ratio byte is consumed and ignored.
func ParseHeader(c *Cursor) (ScreenDescriptor, error) {
	var sd ScreenDescriptor

	sig, err := c.ReadBytes(SignatureSize)
	if err != nil {
		return sd, err
	}
	if !bytes.Equal(sig[:3], []byte("GIF")) {
		return sd, fmt.Errorf("%w: bad signature %q", ErrBadFile, sig[:3])
	}
	version := string(sig[3:6])
	if version != "87a" && version != "89a" {
		return sd, fmt.Errorf("%w: unknown version %q", ErrBadFile, version)
	}
	sd.Version = version

	w, err := c.ReadLE16()
	if err != nil {
		return sd, err
	}
	h, err := c.ReadLE16()
	if err != nil {
		return sd, err
	}
	packed, err := c.ReadByte()
	if err != nil {
		return sd, err
	}
	bg, err := c.ReadByte()
	if err != nil {
		return sd, err
	}
	if err := c.Skip(1); err != nil { // pixel aspect ratio, unused
		return sd, err
	}

	sd.Width = int(w)
	sd.Height = int(h)
	sd.HasGlobalTable = packed&ColorTableFlag != 0
	sd.TableSize = 2 << (packed & TableSizeMask)
	sd.Background = bg
	return sd, nil
}

// ParseImageDescriptor reads the 9 descriptor bytes following the 0x2C
// separator.
func ParseImageDescriptor(c *Cursor) (ImageDescriptor, error) {
	var id ImageDescriptor

	raw, err := c.ReadBytes(9)
	if err != nil {
		return id, err
	}
	id.X = int(ReadLE16(raw[0:]))
	id.Y = int(ReadLE16(raw[2:]))
	id.Width = int(ReadLE16(raw[4:]))
	id.Height = int(ReadLE16(raw[6:]))
	packed := raw[8]
	id.Interlaced = packed&InterlaceFlag != 0
	id.HasLocalTable = packed&ColorTableFlag != 0
	id.TableSize = 2 << (packed & TableSizeMask)
	return id, nil
}

// ParseGraphicControl reads a graphic control extension payload (the bytes
// after the 0x21 0xF9 labels): block size, packed flags, delay, transparent
// index and the block terminator.
func ParseGraphicControl(c *Cursor) (GraphicControl, error) {
	var gc GraphicControl

	size, err := c.ReadByte()
	if err != nil {
		return gc, err
	}
	if size != GCBlockSize {
		return gc, fmt.Errorf("%w: graphic control block size %d", ErrBadFile, size)
	}
	raw, err := c.ReadBytes(GCBlockSize)
	if err != nil {
		return gc, err
	}
	gc.Disposal = (raw[0] >> 2) & 0x07
	gc.HasTransparency = raw[0]&0x01 != 0
	gc.DelayMS = int(ReadLE16(raw[1:])) * 10
	gc.TransparentIndex = raw[3]

	term, err := c.ReadByte()
	if err != nil {
		return gc, err
	}
	if term != 0 {
		return gc, fmt.Errorf("%w: graphic control not terminated", ErrBadFile)
	}
	return gc, nil
}

// ParseApplication reads an application extension. When the identifier is
// the Netscape (or Animexts) looping extension and the first sub-block is
// the 3-byte loop record [1, lo, hi], it returns the wire loop count with
// hasLoop set. All remaining sub-blocks are discarded.
func ParseApplication(c *Cursor) (loopCount int, hasLoop bool, err error) {
	size, err := c.ReadByte()
	if err != nil {
		return 0, false, err
	}
	if size != AppBlockSize {
		// Tolerate non-standard identifier lengths; the payload is still a
		// well-formed sub-block chain.
		if err := c.Skip(int(size)); err != nil {
			return 0, false, err
		}
		return 0, false, SkipSubBlocks(c)
	}

	ident, err := c.ReadBytes(AppBlockSize)
	if err != nil {
		return 0, false, err
	}
	isLoopExt := bytes.Equal(ident, netscapeID) || bytes.Equal(ident, animextsID)

	first := true
	for {
		n, err := c.ReadByte()
		if err != nil {
			return 0, false, err
		}
		if n == 0 {
			return loopCount, hasLoop, nil
		}
		sub, err := c.ReadBytes(int(n))
		if err != nil {
			return 0, false, err
		}
		if isLoopExt && first && n == 3 && sub[0] == 1 {
			loopCount = int(ReadLE16(sub[1:]))
			hasLoop = true
		}
		first = false
	}
}

// SkipSubBlocks discards a sub-block chain up to and including its
// zero-length terminator.
func SkipSubBlocks(c *Cursor) error {
	for {
		n, err := c.ReadByte()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if err := c.Skip(int(n)); err != nil {
			return err
		}
	}
}
