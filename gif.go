package gif

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"time"

	"github.com/deepteams/gif/internal/container"
)

func init() {
	image.RegisterFormat("gif", "GIF8?a", Decode, DecodeConfig)
}

// Features describes a GIF file's properties, as returned by [GetFeatures].
type Features struct {
	Version           string // "87a" or "89a"
	Width             int    // canvas width in pixels
	Height            int    // canvas height in pixels
	GlobalPaletteSize int    // entries in the global colour table, 0 if absent
	BackgroundIndex   int    // background palette index from the screen descriptor
	HasAnimation      bool   // more than one frame, or a loop extension present
	LoopCount         int    // -1 = infinite; otherwise the wire repetition count
	FrameCount        int    // number of image descriptors in the file
}

// Animation holds a fully decoded animated GIF, each frame composited onto
// the canvas in sequence.
type Animation struct {
	Frames    []*image.NRGBA
	Delays    []time.Duration
	LoopCount int // -1 = infinite
	Width     int
	Height    int
}

// readAll reads all data from r. If r implements Len() int (e.g.
// *bytes.Reader), a single exact-sized allocation is used instead of the
// repeated doublings that io.ReadAll performs.
func readAll(r io.Reader) ([]byte, error) {
	if lr, ok := r.(interface{ Len() int }); ok {
		if n := lr.Len(); n > 0 {
			data := make([]byte, n)
			_, err := io.ReadFull(r, data)
			return data, err
		}
	}
	return io.ReadAll(r)
}

// Decode reads a GIF image from r and returns its first frame as an
// *image.NRGBA: palette RGB with A=0xFF, except that pixels the frame
// marks transparent carry A=0 (under restore-to-background disposal they
// are painted with the background colour and stay opaque). The canvas
// outside the frame rectangle is the background colour, opaque.
func Decode(r io.Reader) (image.Image, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("gif: reading data: %w", err)
	}

	d, dst, err := decoderFor(data)
	if err != nil {
		return nil, err
	}
	w, h := d.Info()
	// The background prefill is opaque; the compositor lowers the mask to
	// zero wherever the frame skips a transparent pixel.
	mask := make([]byte, w*h)
	for i := range mask {
		mask[i] = 0xFF
	}
	if _, err := d.NextFrameMask(dst, mask); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: file has no image", ErrNoFrame)
		}
		return nil, err
	}
	return rgbToNRGBA(dst, mask, w, h), nil
}

// DecodeConfig returns the colour model and canvas dimensions of a GIF
// image without decoding any pixel data.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := readAll(r)
	if err != nil {
		return image.Config{}, fmt.Errorf("gif: reading data: %w", err)
	}
	cur := container.NewCursor(data)
	sd, err := container.ParseHeader(&cur)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{
		ColorModel: color.NRGBAModel,
		Width:      sd.Width,
		Height:     sd.Height,
	}, nil
}

// DecodeAll reads a GIF from r and decodes every frame, compositing each
// onto the persistent canvas the way a player would. The returned frames
// are fully opaque: transparency reveals the accumulated canvas content,
// which is itself drawn over the background.
func DecodeAll(r io.Reader) (*Animation, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("gif: reading data: %w", err)
	}

	feat, err := featuresOf(data)
	if err != nil {
		return nil, err
	}
	d, dst, err := decoderFor(data)
	if err != nil {
		return nil, err
	}
	w, h := d.Info()

	anim := &Animation{
		LoopCount: feat.LoopCount,
		Width:     w,
		Height:    h,
	}
	// The decoder itself would replay looping animations; the frame count
	// from the container walk bounds this to one pass.
	for i := 0; i < feat.FrameCount; i++ {
		delay, err := d.NextFrame(dst)
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
		anim.Frames = append(anim.Frames, rgbToNRGBA(dst, nil, w, h))
		anim.Delays = append(anim.Delays, delay)
	}
	if len(anim.Frames) == 0 {
		return nil, fmt.Errorf("%w: file has no image", ErrNoFrame)
	}
	return anim, nil
}

// GetFeatures reads a GIF's properties (dimensions, palettes, animation
// structure) by walking the container blocks without decoding pixel data,
// making it much cheaper than a full [Decode].
func GetFeatures(r io.Reader) (*Features, error) {
	data, err := readAll(r)
	if err != nil {
		return nil, fmt.Errorf("gif: reading data: %w", err)
	}
	return featuresOf(data)
}

// decoderFor builds a decoder sized to the file's canvas, along with a
// background-filled output buffer. The convenience layer allocates; the
// decoder core still does not.
func decoderFor(data []byte) (*Decoder, []byte, error) {
	cur := container.NewCursor(data)
	sd, err := container.ParseHeader(&cur)
	if err != nil {
		return nil, nil, err
	}

	limits := DefaultLimits()
	if sd.Width > limits.MaxWidth {
		limits.MaxWidth = sd.Width
	}
	if sd.Height > limits.MaxHeight {
		limits.MaxHeight = sd.Height
	}

	d := new(Decoder)
	scratch := make([]byte, limits.ScratchSize())
	if err := d.Init(data, scratch, limits); err != nil {
		return nil, nil, err
	}

	dst := make([]byte, sd.Width*sd.Height*3)
	if sd.HasGlobalTable {
		// cur sits just past the screen descriptor, on the global table.
		if pal, err := cur.ReadBytes(sd.TableSize * 3); err == nil {
			if bi := int(sd.Background) * 3; bi+3 <= len(pal) {
				fillRGB(dst, pal[bi], pal[bi+1], pal[bi+2])
			}
		}
	}
	return d, dst, nil
}

// featuresOf walks the container blocks, skipping compressed data.
func featuresOf(data []byte) (*Features, error) {
	cur := container.NewCursor(data)
	sd, err := container.ParseHeader(&cur)
	if err != nil {
		return nil, err
	}

	feat := &Features{
		Version:         sd.Version,
		Width:           sd.Width,
		Height:          sd.Height,
		BackgroundIndex: int(sd.Background),
		LoopCount:       0,
	}
	if sd.HasGlobalTable {
		feat.GlobalPaletteSize = sd.TableSize
		if err := cur.Skip(sd.TableSize * 3); err != nil {
			return nil, err
		}
	}

	hasLoopExt := false
	for {
		sep, err := cur.ReadByte()
		if err != nil {
			return nil, err
		}
		switch sep {
		case container.SepTrailer:
			feat.HasAnimation = feat.FrameCount > 1 || hasLoopExt
			return feat, nil

		case container.SepExtension:
			label, err := cur.ReadByte()
			if err != nil {
				return nil, err
			}
			if label == container.LabelApplication {
				wire, has, err := container.ParseApplication(&cur)
				if err != nil {
					return nil, err
				}
				if has {
					hasLoopExt = true
					if wire == 0 {
						feat.LoopCount = -1
					} else {
						feat.LoopCount = wire
					}
				}
			} else if err := container.SkipSubBlocks(&cur); err != nil {
				return nil, err
			}

		case container.SepImage:
			id, err := container.ParseImageDescriptor(&cur)
			if err != nil {
				return nil, err
			}
			if id.HasLocalTable {
				if err := cur.Skip(id.TableSize * 3); err != nil {
					return nil, err
				}
			}
			if err := cur.Skip(1); err != nil { // LZW minimum code size
				return nil, err
			}
			if err := container.SkipSubBlocks(&cur); err != nil {
				return nil, err
			}
			feat.FrameCount++

		default:
			return nil, fmt.Errorf("%w: unexpected separator 0x%02X", ErrBadFile, sep)
		}
	}
}

// rgbToNRGBA copies a packed 24-bit RGB canvas into a fresh *image.NRGBA.
// The alpha channel comes from the coverage mask; a nil mask means fully
// opaque.
func rgbToNRGBA(rgb, mask []byte, w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	si := 0
	mi := 0
	for y := 0; y < h; y++ {
		di := y * img.Stride
		for x := 0; x < w; x++ {
			img.Pix[di] = rgb[si]
			img.Pix[di+1] = rgb[si+1]
			img.Pix[di+2] = rgb[si+2]
			a := byte(0xFF)
			if mask != nil {
				a = mask[mi]
			}
			img.Pix[di+3] = a
			di += 4
			si += 3
			mi++
		}
	}
	return img
}

// fillRGB floods a packed RGB buffer with one colour.
func fillRGB(dst []byte, r, g, b byte) {
	for i := 0; i < len(dst); i += 3 {
		dst[i] = r
		dst[i+1] = g
		dst[i+2] = b
	}
}
