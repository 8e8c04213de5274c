package lzw

import (
	"errors"
	"fmt"

	"github.com/deepteams/gif/internal/container"
)

// Decoder drives one frame's LZW stream: sub-block window, code reader and
// the configured dictionary representation. All working storage comes from
// the Layout supplied at Init; the decoder allocates nothing.
type Decoder struct {
	maxBits int
	maxCode int
	turbo   bool

	win   window
	br    bitReader
	safe  safeDict
	tdict turboDict

	minCodeSize int
	clearCode   int
	eoiCode     int
}

// Init wires the decoder to its scratch layout. maxBits is the maximum code
// width (MAX_CODE_SIZE); turbo selects the string-table representation.
func (d *Decoder) Init(lay Layout, maxBits int, turbo bool) error {
	t := 1 << uint(maxBits)
	if len(lay.Window) < WindowSize {
		return fmt.Errorf("%w: window buffer too small", ErrDecode)
	}
	if turbo {
		if len(lay.OffLen) < 4*t || len(lay.Length) < 2*t || len(lay.First) < t {
			return fmt.Errorf("%w: turbo table buffers too small", ErrDecode)
		}
		d.tdict = turboDict{offlen: lay.OffLen, length: lay.Length, first: lay.First, pool: lay.Pool}
	} else {
		if len(lay.Parent) < 2*t || len(lay.Suffix) < t || len(lay.Stack) < t {
			return fmt.Errorf("%w: safe table buffers too small", ErrDecode)
		}
		d.safe = safeDict{parent: lay.Parent, suffix: lay.Suffix, stack: lay.Stack}
	}
	d.win.buf = lay.Window
	d.br.win = &d.win
	d.maxBits = maxBits
	d.maxCode = t
	d.turbo = turbo
	return nil
}

// ResetWindow clears the sub-block windowing state (used on rewind).
func (d *Decoder) ResetWindow() {
	d.win.readOff = 0
	d.win.size = 0
	d.win.eof = false
	d.win.cur = nil
}

func (d *Decoder) dict() dict {
	if d.turbo {
		return &d.tdict
	}
	return &d.safe
}

// BeginFrame positions the decoder over a frame's compressed data. The
// cursor must sit on the LZW minimum code size byte's successor, i.e. the
// caller has already read minCodeSize. A minCodeSize outside 2..8, or not
// below the maximum code width, is a decode error.
func (d *Decoder) BeginFrame(cur *container.Cursor, minCodeSize int) error {
	if minCodeSize < 2 || minCodeSize > 8 || minCodeSize >= d.maxBits {
		return fmt.Errorf("%w: minimum code size %d", ErrDecode, minCodeSize)
	}
	d.minCodeSize = minCodeSize
	d.clearCode = 1 << uint(minCodeSize)
	d.eoiCode = d.clearCode + 1
	d.win.begin(cur)
	return d.br.begin(minCodeSize)
}

// DecodeFrame reads codes until the sink is full or the EOI code arrives.
// Any sub-block bytes left after that are discarded up to the zero-length
// terminator, leaving the cursor on the next block separator.
func (d *Decoder) DecodeFrame(sink Sink) error {
	if err := d.decode(sink); err != nil {
		return err
	}
	return d.win.skipRemaining()
}

func (d *Decoder) decode(sink Sink) error {
	t := d.dict()
	t.reset(d.minCodeSize)
	nextLim := 1 << uint(d.minCodeSize+1)
	old := -1

	for {
		code, err := d.br.next()
		if err != nil {
			if errors.Is(err, errShortStream) {
				if sink.Full() {
					// Terminator arrived without an explicit EOI code.
					return nil
				}
				return fmt.Errorf("%w: stream ended before frame was complete", ErrDecode)
			}
			return err
		}

		switch {
		case code == d.clearCode:
			t.reset(d.minCodeSize)
			d.br.setWidth(uint(d.minCodeSize) + 1)
			nextLim = 1 << uint(d.minCodeSize+1)
			old = -1
			continue
		case code == d.eoiCode:
			if !sink.Full() {
				return fmt.Errorf("%w: stream ended before frame was complete", ErrDecode)
			}
			return nil
		}

		next := t.nextCode()
		switch {
		case old < 0:
			if code >= d.clearCode {
				return fmt.Errorf("%w: first code %d is not a root", ErrDecode, code)
			}
			if _, err := t.emitKnown(code, sink); err != nil {
				return err
			}
		case code < next:
			first, err := t.emitKnown(code, sink)
			if err != nil {
				return err
			}
			if next < d.maxCode {
				t.insert(old, first)
			}
		case code == next && next < d.maxCode:
			if err := t.emitNovel(old, sink); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: code %d beyond dictionary", ErrDecode, code)
		}
		old = code

		if t.nextCode() == nextLim && int(d.br.codeSize) < d.maxBits {
			d.br.setWidth(d.br.codeSize + 1)
			nextLim <<= 1
		}
		if sink.Full() {
			return nil
		}
	}
}
