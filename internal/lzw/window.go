// Package lzw implements the GIF-variant LZW decode pipeline: the sub-block
// window, the variable-width code reader and the two interchangeable
// dictionary representations (Safe and Turbo).
package lzw

import (
	"errors"

	"github.com/deepteams/gif/internal/container"
)

// ChunkSize is the maximum sub-block payload length.
const ChunkSize = 255

// WindowSize is the capacity of the sub-block scratch window. It holds the
// 32-bit accumulator tail plus several chunks of lookahead, so refills are
// amortised across many code reads.
const WindowSize = 1024

// ErrDecode reports a malformed LZW stream or corrupt interior state.
var ErrDecode = errors.New("gif: corrupt image data")

// errShortStream is returned by the bit reader when the sub-block chain has
// terminated and the buffered bits cannot supply another code.
var errShortStream = errors.New("gif: image data exhausted")

// window reassembles the GIF sub-block chain into a contiguous LZW byte
// stream inside a fixed scratch buffer. It runs as a pull producer: fill
// compacts the unread tail to offset 0 and appends whole sub-blocks until
// the buffer cannot take another ChunkSize bytes or the zero-length
// terminator latches eof.
type window struct {
	cur     *container.Cursor
	buf     []byte
	readOff int
	size    int
	eof     bool
}

func (w *window) begin(cur *container.Cursor) {
	w.cur = cur
	w.readOff = 0
	w.size = 0
	w.eof = false
}

// fill tops up the window. A partial sub-block payload in the source is an
// early-EOF error from the cursor.
func (w *window) fill() error {
	if w.eof || w.size-w.readOff >= ChunkSize {
		return nil
	}
	if w.readOff > 0 {
		copy(w.buf, w.buf[w.readOff:w.size])
		w.size -= w.readOff
		w.readOff = 0
	}
	for w.size+ChunkSize <= len(w.buf) {
		n, err := w.cur.ReadByte()
		if err != nil {
			return err
		}
		if n == 0 {
			w.eof = true
			return nil
		}
		payload, err := w.cur.ReadBytes(int(n))
		if err != nil {
			return err
		}
		copy(w.buf[w.size:], payload)
		w.size += int(n)
	}
	return nil
}

// skipRemaining discards the rest of the frame's sub-block chain, leaving
// the cursor positioned after the zero-length terminator.
func (w *window) skipRemaining() error {
	if w.eof {
		return nil
	}
	w.eof = true
	return container.SkipSubBlocks(w.cur)
}
