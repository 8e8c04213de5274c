package gif

import (
	"bytes"
	"compress/lzw"
	"io"
	"testing"
)

// gifBuilder assembles GIF byte streams for tests: header, colour tables,
// extensions and LZW-compressed image data in 255-byte sub-blocks.
type gifBuilder struct {
	buf bytes.Buffer
}

func newGIF(version string) *gifBuilder {
	b := &gifBuilder{}
	b.buf.WriteString("GIF" + version)
	return b
}

// sizeBits returns the packed-field size code for a colour table with n
// entries (n must be a power of two in [2,256]).
func sizeBits(n int) byte {
	bits := byte(0)
	for 2<<bits < n {
		bits++
	}
	return bits
}

func writeU16(buf *bytes.Buffer, v int) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

func writePalette(buf *bytes.Buffer, pal [][3]byte) {
	for _, c := range pal {
		buf.Write(c[:])
	}
}

// screen writes the logical screen descriptor and, when pal is non-nil,
// the global colour table.
func (b *gifBuilder) screen(w, h int, pal [][3]byte, bg byte) *gifBuilder {
	writeU16(&b.buf, w)
	writeU16(&b.buf, h)
	if pal != nil {
		b.buf.WriteByte(0x80 | sizeBits(len(pal)))
	} else {
		b.buf.WriteByte(0)
	}
	b.buf.WriteByte(bg)
	b.buf.WriteByte(0) // pixel aspect ratio
	if pal != nil {
		writePalette(&b.buf, pal)
	}
	return b
}

// graphicControl writes a graphic control extension. trans < 0 disables
// transparency. delayCS is in 1/100 s wire units.
func (b *gifBuilder) graphicControl(disposal byte, delayCS int, trans int) *gifBuilder {
	packed := disposal << 2
	ti := byte(0)
	if trans >= 0 {
		packed |= 0x01
		ti = byte(trans)
	}
	b.buf.Write([]byte{0x21, 0xF9, 0x04, packed})
	writeU16(&b.buf, delayCS)
	b.buf.WriteByte(ti)
	b.buf.WriteByte(0)
	return b
}

// netscapeLoop writes the Netscape application extension with the given
// wire loop count.
func (b *gifBuilder) netscapeLoop(count int) *gifBuilder {
	b.buf.Write([]byte{0x21, 0xFF, 0x0B})
	b.buf.WriteString("NETSCAPE2.0")
	b.buf.Write([]byte{0x03, 0x01})
	writeU16(&b.buf, count)
	b.buf.WriteByte(0)
	return b
}

func (b *gifBuilder) comment(s string) *gifBuilder {
	b.buf.Write([]byte{0x21, 0xFE, byte(len(s))})
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
	return b
}

// interlacedRowOrder returns the display rows in the order an interlaced
// frame of height h stores them.
func interlacedRowOrder(h int) []int {
	offsets := [4]int{0, 4, 2, 1}
	strides := [4]int{8, 8, 4, 2}
	var rows []int
	for p := 0; p < 4; p++ {
		for r := offsets[p]; r < h; r += strides[p] {
			rows = append(rows, r)
		}
	}
	return rows
}

// image writes an image descriptor plus LZW-compressed pixel data. pixels
// is given in display order; for interlaced frames the rows are permuted
// into storage order here. The minimum code size is derived from the
// active palette size (local if present, otherwise paletteSize).
func (b *gifBuilder) image(x, y, w, h int, interlaced bool, localPal [][3]byte, paletteSize int, pixels []byte) *gifBuilder {
	writeImageDescriptor(&b.buf, x, y, w, h, interlaced, localPal)

	n := paletteSize
	if localPal != nil {
		n = len(localPal)
	}
	litWidth := 2
	for litWidth < 8 && 1<<litWidth < n {
		litWidth++
	}

	if interlaced {
		permuted := make([]byte, len(pixels))
		for storage, display := range interlacedRowOrder(h) {
			copy(permuted[storage*w:(storage+1)*w], pixels[display*w:(display+1)*w])
		}
		pixels = permuted
	}

	b.buf.WriteByte(byte(litWidth))
	bw := &subBlockWriter{w: &b.buf}
	lw := lzw.NewWriter(bw, lzw.LSB, litWidth)
	if _, err := lw.Write(pixels); err != nil {
		panic(err)
	}
	if err := lw.Close(); err != nil {
		panic(err)
	}
	if err := bw.close(); err != nil {
		panic(err)
	}
	b.buf.WriteByte(0) // sub-block terminator
	return b
}

// rawImage writes an image descriptor with a hand-packed LZW stream.
func (b *gifBuilder) rawImage(x, y, w, h int, minCodeSize int, stream []byte) *gifBuilder {
	writeImageDescriptor(&b.buf, x, y, w, h, false, nil)
	b.buf.WriteByte(byte(minCodeSize))
	for len(stream) > 0 {
		n := len(stream)
		if n > 255 {
			n = 255
		}
		b.buf.WriteByte(byte(n))
		b.buf.Write(stream[:n])
		stream = stream[n:]
	}
	b.buf.WriteByte(0)
	return b
}

func writeImageDescriptor(buf *bytes.Buffer, x, y, w, h int, interlaced bool, localPal [][3]byte) {
	buf.WriteByte(0x2C)
	writeU16(buf, x)
	writeU16(buf, y)
	writeU16(buf, w)
	writeU16(buf, h)
	var packed byte
	if interlaced {
		packed |= 0x40
	}
	if localPal != nil {
		packed |= 0x80 | sizeBits(len(localPal))
	}
	buf.WriteByte(packed)
	if localPal != nil {
		writePalette(buf, localPal)
	}
}

func (b *gifBuilder) trailer() []byte {
	b.buf.WriteByte(0x3B)
	return b.buf.Bytes()
}

// subBlockWriter chunks an LZW stream into 255-byte GIF sub-blocks.
type subBlockWriter struct {
	w   io.Writer
	buf [256]byte
	n   int
}

func (b *subBlockWriter) Write(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		n := copy(b.buf[b.n+1:256], p)
		b.n += n
		p = p[n:]
		total += n
		if b.n == 255 {
			b.buf[0] = 255
			if _, err := b.w.Write(b.buf[:256]); err != nil {
				return total, err
			}
			b.n = 0
		}
	}
	return total, nil
}

func (b *subBlockWriter) close() error {
	if b.n > 0 {
		b.buf[0] = byte(b.n)
		_, err := b.w.Write(b.buf[:b.n+1])
		return err
	}
	return nil
}

// codePacker packs variable-width LZW codes LSB-first, for hand-crafted
// streams.
type codePacker struct {
	out []byte
	acc uint32
	n   uint
}

func (p *codePacker) pack(code int, width uint) {
	p.acc |= uint32(code) << p.n
	p.n += width
	for p.n >= 8 {
		p.out = append(p.out, byte(p.acc))
		p.acc >>= 8
		p.n -= 8
	}
}

func (p *codePacker) finish() []byte {
	if p.n > 0 {
		p.out = append(p.out, byte(p.acc))
		p.acc = 0
		p.n = 0
	}
	return p.out
}

// --- decoder test helpers ---

var testModes = []struct {
	name string
	mode Mode
}{
	{"safe", ModeSafe},
	{"turbo", ModeTurbo},
}

func smallLimits(mode Mode) Limits {
	return Limits{
		MaxWidth:    128,
		MaxHeight:   128,
		MaxColors:   256,
		MaxCodeSize: 12,
		Mode:        mode,
	}
}

func newDecoder(t *testing.T, data []byte, limits Limits) *Decoder {
	t.Helper()
	d := new(Decoder)
	scratch := make([]byte, limits.ScratchSize())
	if err := d.Init(data, scratch, limits); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return d
}

func canvasBuf(d *Decoder) []byte {
	w, h := d.Info()
	return make([]byte, w*h*3)
}
