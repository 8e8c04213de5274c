package gif

import (
	"fmt"

	"github.com/deepteams/gif/internal/container"
)

// Four-pass interlace row permutation.
var (
	interlaceOffset = [4]int{0, 4, 2, 1}
	interlaceStride = [4]int{8, 8, 4, 2}
)

// lineWriter is the line assembler: it accumulates decoded pixel indices
// until a full scan-line is available, then composites it into the output
// canvas at the frame's destination row. It is the sink the LZW decoder
// emits into.
type lineWriter struct {
	d    *Decoder
	dst  []byte
	mask []byte // optional per-pixel coverage plane
	line []byte
	pix  int

	rows       int // lines flushed so far
	pass       int
	lineInPass int
	full       bool
}

func (w *lineWriter) begin(d *Decoder, dst, mask []byte) {
	w.d = d
	w.dst = dst
	w.mask = mask
	w.line = d.layout.line[:d.frame.Width]
	w.pix = 0
	w.rows = 0
	w.pass = 0
	w.lineInPass = 0
	w.full = false
}

// Full reports that frame_width * frame_height indices have been consumed.
func (w *lineWriter) Full() bool { return w.full }

func (w *lineWriter) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		if w.full {
			return n - len(p), fmt.Errorf("%w: pixel data overruns frame", ErrDecode)
		}
		c := copy(w.line[w.pix:], p)
		w.pix += c
		p = p[c:]
		if w.pix == len(w.line) {
			if err := w.flush(); err != nil {
				return n - len(p), err
			}
		}
	}
	return n, nil
}

// flush writes the assembled line to its destination row and resets the
// pixel cursor. Interlaced frames advance to the next pass when the
// current pass's rows are exhausted.
func (w *lineWriter) flush() error {
	fr := &w.d.frame
	var row int
	if fr.Interlaced {
		for {
			if w.pass > 3 {
				return fmt.Errorf("%w: interlaced row out of range", ErrDecode)
			}
			r := interlaceOffset[w.pass] + w.lineInPass*interlaceStride[w.pass]
			if r < fr.Height {
				row = r
				break
			}
			w.pass++
			w.lineInPass = 0
		}
		w.lineInPass++
	} else {
		row = w.rows
	}

	if err := w.d.composeLine(w.dst, w.mask, fr.Y+row, w.line); err != nil {
		return err
	}
	w.rows++
	w.pix = 0
	if w.rows == fr.Height {
		w.full = true
	}
	return nil
}

// composeLine maps one line of pixel indices through the active palette
// into 24-bit RGB at the given canvas row. Transparent pixels are left
// untouched unless the frame's disposal method is restore-to-background,
// in which case the background colour is written. When mask is non-nil,
// every pixel inside the frame rectangle records its coverage there: 0xFF
// for a written colour, 0x00 for a transparent skip.
func (d *Decoder) composeLine(dst, mask []byte, canvasRow int, line []byte) error {
	pal := d.activePal
	gc := &d.gc
	restoreBG := gc.HasTransparency && gc.Disposal == container.DisposalBackground

	var bgR, bgG, bgB byte
	if restoreBG {
		if bi := int(d.screen.Background) * 3; bi+3 <= len(pal) {
			bgR, bgG, bgB = pal[bi], pal[bi+1], pal[bi+2]
		}
	}

	mi := canvasRow*d.screen.Width + d.frame.X
	off := mi * 3
	for _, idx := range line {
		if gc.HasTransparency && idx == gc.TransparentIndex {
			if restoreBG {
				dst[off] = bgR
				dst[off+1] = bgG
				dst[off+2] = bgB
			}
			if mask != nil {
				if restoreBG {
					mask[mi] = 0xFF
				} else {
					mask[mi] = 0x00
				}
			}
			off += 3
			mi++
			continue
		}
		p := int(idx) * 3
		if p+3 > len(pal) {
			return fmt.Errorf("%w: pixel index %d outside palette", ErrDecode, idx)
		}
		dst[off] = pal[p]
		dst[off+1] = pal[p+1]
		dst[off+2] = pal[p+2]
		if mask != nil {
			mask[mi] = 0xFF
		}
		off += 3
		mi++
	}
	return nil
}
