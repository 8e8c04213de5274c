package gif

import (
	"fmt"
	"math/bits"

	"github.com/deepteams/gif/internal/lzw"
)

// Mode selects the LZW dictionary representation.
type Mode int

const (
	// ModeSafe uses the compact chain-of-suffixes table: smallest scratch,
	// per-code chain walks on emission.
	ModeSafe Mode = iota
	// ModeTurbo uses the string-table representation with a materialising
	// emission tape: larger scratch, bulk copies instead of chain walks.
	ModeTurbo
)

// Limits fixes the decoder's capacity at configuration time. The scratch
// requirement is a pure function of these values.
type Limits struct {
	MaxWidth    int  // maximum canvas/frame width, ≥ 1
	MaxHeight   int  // maximum canvas/frame height, ≥ 1
	MaxColors   int  // maximum palette entries, power of two in [2, 256]
	MaxCodeSize int  // maximum LZW code width in bits, in [3, 12]
	Mode        Mode // dictionary representation
}

// DefaultLimits returns the configuration used by the convenience API:
// 1024x1024 canvas, full 256-colour palettes, 12-bit codes, Safe mode.
func DefaultLimits() Limits {
	return Limits{
		MaxWidth:    1024,
		MaxHeight:   1024,
		MaxColors:   256,
		MaxCodeSize: 12,
		Mode:        ModeSafe,
	}
}

func (l Limits) validate() error {
	if l.MaxWidth < 1 || l.MaxHeight < 1 {
		return fmt.Errorf("%w: canvas limits %dx%d", ErrInvalidParam, l.MaxWidth, l.MaxHeight)
	}
	if l.MaxColors < 2 || l.MaxColors > 256 || bits.OnesCount(uint(l.MaxColors)) != 1 {
		return fmt.Errorf("%w: max colors %d", ErrInvalidParam, l.MaxColors)
	}
	if l.MaxCodeSize < 3 || l.MaxCodeSize > 12 {
		return fmt.Errorf("%w: max code size %d", ErrInvalidParam, l.MaxCodeSize)
	}
	if l.Mode != ModeSafe && l.Mode != ModeTurbo {
		return fmt.Errorf("%w: mode %d", ErrInvalidParam, int(l.Mode))
	}
	if l.Mode == ModeTurbo && l.poolSize() > 1<<23 {
		// Turbo offset words carry 23-bit pool offsets.
		return fmt.Errorf("%w: turbo pool exceeds addressable range", ErrInvalidParam)
	}
	return nil
}

// poolSize is the Turbo emission tape: the root region (up to 256 root
// codes regardless of MaxColors, since the minimum code size is not bound
// by the palette), one frame's worth of emitted indices, and slack for the
// final string to overshoot the frame boundary before the row-range check
// rejects it.
func (l Limits) poolSize() int {
	return 256 + l.MaxWidth*l.MaxHeight + 1<<uint(l.MaxCodeSize)
}

// ScratchSize returns the scratch requirement for these limits.
func (l Limits) ScratchSize() int {
	t := 1 << uint(l.MaxCodeSize)
	n := lzw.WindowSize + l.MaxWidth
	if l.Mode == ModeTurbo {
		n += 4*t + 2*t + t + l.poolSize()
	} else {
		n += 2*t + t + t
	}
	return n
}

// layout is the scratch partition: every working buffer is a view into the
// caller's scratch region, carved once at init.
type layout struct {
	line []byte
	lzw  lzw.Layout
}

func (l Limits) partition(scratch []byte) layout {
	t := 1 << uint(l.MaxCodeSize)
	var lay layout
	take := func(n int) []byte {
		b := scratch[:n:n]
		scratch = scratch[n:]
		return b
	}
	lay.lzw.Window = take(lzw.WindowSize)
	lay.line = take(l.MaxWidth)
	if l.Mode == ModeTurbo {
		lay.lzw.OffLen = take(4 * t)
		lay.lzw.Length = take(2 * t)
		lay.lzw.First = take(t)
		lay.lzw.Pool = take(l.poolSize())
	} else {
		lay.lzw.Parent = take(2 * t)
		lay.lzw.Suffix = take(t)
		lay.lzw.Stack = take(t)
	}
	return lay
}
