package gif

import (
	"fmt"
	"io"
	"time"

	"github.com/deepteams/gif/internal/container"
	"github.com/deepteams/gif/internal/lzw"
)

// Decoder is a streaming GIF87a/89a frame decoder. It holds no hidden
// global state and performs no allocation after Init: the source buffer is
// read in place and every working buffer is a view into the caller's
// scratch region.
//
// A Decoder must not be used from multiple goroutines concurrently.
// Distinct decoders over distinct source and scratch regions are
// independent.
type Decoder struct {
	limits Limits
	src    []byte
	cur    container.Cursor
	layout layout

	screen    container.ScreenDescriptor
	globalPal []byte // view into src
	localPal  []byte // view into src, current frame only
	activePal []byte
	frame     container.ImageDescriptor
	gc        container.GraphicControl

	loopCount int  // -1 infinite, 0 play once, >0 remaining repetitions
	loopSeen  bool // loop extension consumed; re-reads after rewind are ignored
	animStart int  // rewind target: first byte after header + global table

	lz lzw.Decoder
	lw lineWriter

	errCB ErrorCallback
	ready bool
	done  bool
}

// Init validates the configuration, partitions scratch into the decoder's
// working buffers, and reads the header and optional global colour table.
// src must outlive the decoder and scratch must be at least
// limits.ScratchSize() bytes and exclusive to this decoder.
func (d *Decoder) Init(src, scratch []byte, limits Limits) error {
	cb := d.errCB
	*d = Decoder{errCB: cb}

	if len(src) == 0 {
		return d.fail(fmt.Errorf("%w: empty source", ErrInvalidParam))
	}
	if err := limits.validate(); err != nil {
		return d.fail(err)
	}
	if need := limits.ScratchSize(); len(scratch) < need {
		return d.fail(fmt.Errorf("%w: have %d, need %d", ErrBufferTooSmall, len(scratch), need))
	}

	d.limits = limits
	d.src = src
	d.layout = limits.partition(scratch)
	if err := d.lz.Init(d.layout.lzw, limits.MaxCodeSize, limits.Mode == ModeTurbo); err != nil {
		return d.fail(err)
	}

	d.cur = container.NewCursor(src)
	sd, err := container.ParseHeader(&d.cur)
	if err != nil {
		return d.fail(err)
	}
	if sd.Width < 1 || sd.Height < 1 {
		return d.fail(fmt.Errorf("%w: empty canvas", ErrBadFile))
	}
	if sd.Width > limits.MaxWidth || sd.Height > limits.MaxHeight {
		return d.fail(fmt.Errorf("%w: canvas %dx%d exceeds configured limits", ErrBadFile, sd.Width, sd.Height))
	}
	d.screen = sd

	if sd.HasGlobalTable {
		if sd.TableSize > limits.MaxColors {
			return d.fail(fmt.Errorf("%w: global table has %d entries", ErrUnsupportedColorDepth, sd.TableSize))
		}
		d.globalPal, err = d.cur.ReadBytes(sd.TableSize * 3)
		if err != nil {
			return d.fail(err)
		}
	}

	// Without a Netscape loop extension the animation plays once; a wire
	// loop count of zero later switches to infinite.
	d.loopCount = 0
	d.animStart = d.cur.Pos()
	d.ready = true
	return nil
}

// Info returns the canvas dimensions. Before a successful Init both are
// zero.
func (d *Decoder) Info() (width, height int) {
	return d.screen.Width, d.screen.Height
}

// Version returns the file version, "87a" or "89a".
func (d *Decoder) Version() string { return d.screen.Version }

// LoopCount returns the current animation loop state: -1 for infinite,
// otherwise the remaining number of repetitions.
func (d *Decoder) LoopCount() int { return d.loopCount }

// SetErrorCallback installs cb to receive the kind and message of any
// failure just before the failing call returns. A nil cb removes it.
func (d *Decoder) SetErrorCallback(cb ErrorCallback) { d.errCB = cb }

// NextFrame decodes the next frame into dst, which must hold at least
// canvasWidth*canvasHeight*3 bytes of 24-bit RGB. It returns the frame's
// display delay. When playback is complete (trailer reached with no loops
// remaining) it returns io.EOF; calls after that return ErrNoFrame.
//
// dst is only written where the frame produces pixels: transparent pixels
// outside the restore-to-background policy leave the existing bytes
// untouched, so the caller should pass the previous frame's canvas (or a
// buffer pre-filled with the background) for correct animation compositing.
func (d *Decoder) NextFrame(dst []byte) (time.Duration, error) {
	return d.NextFrameMask(dst, nil)
}

// NextFrameMask decodes like [Decoder.NextFrame] and additionally records
// per-pixel coverage into mask, which must hold canvasWidth*canvasHeight
// bytes: 0xFF where the frame wrote a colour (including restore-to-
// background), 0x00 where a transparent pixel left the destination
// untouched. Bytes outside the frame rectangle are not modified, so the
// mask composites across frames the same way dst does. A nil mask disables
// coverage tracking.
func (d *Decoder) NextFrameMask(dst, mask []byte) (time.Duration, error) {
	if !d.ready {
		return 0, d.fail(fmt.Errorf("%w: decoder not initialised", ErrInvalidParam))
	}
	if d.done {
		return 0, d.fail(fmt.Errorf("%w: playback complete", ErrNoFrame))
	}
	if len(dst) < d.screen.Width*d.screen.Height*3 {
		return 0, d.fail(fmt.Errorf("%w: output buffer holds %d bytes", ErrInvalidParam, len(dst)))
	}
	if mask != nil && len(mask) < d.screen.Width*d.screen.Height {
		return 0, d.fail(fmt.Errorf("%w: mask buffer holds %d bytes", ErrInvalidParam, len(mask)))
	}

	// Per-frame state from the previous call is dropped here; a graphic
	// control extension applies only to the image that follows it.
	d.gc = container.GraphicControl{}
	d.localPal = nil

	for {
		sep, err := d.cur.ReadByte()
		if err != nil {
			return 0, d.fail(err)
		}
		switch sep {
		case container.SepTrailer:
			if d.loopCount == -1 || d.loopCount > 0 {
				if d.loopCount > 0 {
					d.loopCount--
				}
				d.restart()
				continue
			}
			d.done = true
			return 0, io.EOF

		case container.SepExtension:
			if err := d.readExtension(); err != nil {
				return 0, d.fail(err)
			}

		case container.SepImage:
			delay, err := d.decodeFrame(dst, mask)
			if err != nil {
				return 0, d.fail(err)
			}
			return delay, nil

		default:
			return 0, d.fail(fmt.Errorf("%w: unexpected separator 0x%02X", ErrBadFile, sep))
		}
	}
}

// Rewind repositions the decoder at the first frame. The loop count and
// all header state are preserved.
func (d *Decoder) Rewind() {
	if !d.ready {
		return
	}
	d.restart()
	d.done = false
}

// Close zeroes the decoder, dropping all buffer references. The decoder
// may be re-initialised afterwards.
func (d *Decoder) Close() {
	*d = Decoder{}
}

// restart is the loop rewind: cursor back to the first post-header byte
// and the LZW windowing state cleared. Everything else is preserved.
func (d *Decoder) restart() {
	d.cur.SetPos(d.animStart)
	d.lz.ResetWindow()
}

func (d *Decoder) fail(err error) error {
	if d.errCB != nil {
		d.errCB(KindOf(err), err.Error())
	}
	return err
}

// readExtension dispatches on the extension label. Graphic control and the
// Netscape loop extension update decoder state; comment, plain text and
// unknown extensions are discarded.
func (d *Decoder) readExtension() error {
	label, err := d.cur.ReadByte()
	if err != nil {
		return err
	}
	switch label {
	case container.LabelGraphicControl:
		gc, err := container.ParseGraphicControl(&d.cur)
		if err != nil {
			return err
		}
		d.gc = gc
		return nil

	case container.LabelApplication:
		wire, hasLoop, err := container.ParseApplication(&d.cur)
		if err != nil {
			return err
		}
		// Honour only the first loop extension: after a rewind the same
		// block is read again and must not restore the spent count.
		if hasLoop && !d.loopSeen {
			d.loopSeen = true
			// A wire count of zero means loop forever.
			if wire == 0 {
				d.loopCount = -1
			} else {
				d.loopCount = wire
			}
		}
		return nil

	default:
		return container.SkipSubBlocks(&d.cur)
	}
}

// decodeFrame handles one image descriptor: geometry validation, optional
// local colour table, and the LZW pixel stream.
func (d *Decoder) decodeFrame(dst, mask []byte) (time.Duration, error) {
	fr, err := container.ParseImageDescriptor(&d.cur)
	if err != nil {
		return 0, err
	}
	if fr.Width < 1 || fr.Height < 1 ||
		fr.X+fr.Width > d.screen.Width || fr.Y+fr.Height > d.screen.Height {
		return 0, fmt.Errorf("%w: %dx%d at (%d,%d) on %dx%d canvas",
			ErrInvalidFrameDimensions, fr.Width, fr.Height, fr.X, fr.Y, d.screen.Width, d.screen.Height)
	}
	d.frame = fr

	d.activePal = d.globalPal
	if fr.HasLocalTable {
		if fr.TableSize > d.limits.MaxColors {
			return 0, fmt.Errorf("%w: local table has %d entries", ErrUnsupportedColorDepth, fr.TableSize)
		}
		d.localPal, err = d.cur.ReadBytes(fr.TableSize * 3)
		if err != nil {
			return 0, err
		}
		d.activePal = d.localPal
	}
	if len(d.activePal) == 0 {
		return 0, fmt.Errorf("%w: no colour table", ErrBadFile)
	}

	mcs, err := d.cur.ReadByte()
	if err != nil {
		return 0, err
	}
	if err := d.lz.BeginFrame(&d.cur, int(mcs)); err != nil {
		return 0, err
	}

	d.lw.begin(d, dst, mask)
	if err := d.lz.DecodeFrame(&d.lw); err != nil {
		return 0, err
	}
	return time.Duration(d.gc.DelayMS) * time.Millisecond, nil
}
