package lzw

import (
	"encoding/binary"
	"fmt"
)

// Turbo offset word format: low 23 bits index into the pool, bit 23 flags
// an appended suffix byte, the high 8 bits carry that suffix.
const (
	turboOffMask    = 1<<23 - 1
	turboSuffixFlag = 1 << 23
)

// turboDict is the string-table representation. The pool opens with a root
// region (one byte per root code) followed by an emission tape: every
// emitted string is materialised at the write cursor, so a dictionary entry
// can describe its string as a pool offset and length, usually inheriting
// the parent's materialised substring plus a flag-encoded suffix byte
// instead of re-copying the prefix. first holds each code's initial suffix
// byte so emission and insertion never have to chase the pool for it.
type turboDict struct {
	offlen []byte // u32 LE per code
	length []byte // u16 LE per code
	first  []byte // initial suffix byte per code
	pool   []byte
	cursor int
	next   int
	roots  int

	// Materialised positions of the last two emissions. prev is the string
	// of the code processed one step earlier, which insert extends.
	lastStart, lastLen int
	prevStart, prevLen int
}

func (t *turboDict) reset(minCodeSize int) {
	t.roots = 1 << uint(minCodeSize)
	for i := 0; i < t.roots; i++ {
		t.pool[i] = byte(i)
		binary.LittleEndian.PutUint32(t.offlen[i*4:], uint32(i))
		binary.LittleEndian.PutUint16(t.length[i*2:], 1)
		t.first[i] = byte(i)
	}
	t.cursor = t.roots
	t.next = t.roots + 2
	t.lastStart, t.lastLen = -1, 0
	t.prevStart, t.prevLen = -1, 0
}

func (t *turboDict) nextCode() int { return t.next }

func (t *turboDict) setEntry(code int, word uint32, strLen int) {
	binary.LittleEndian.PutUint32(t.offlen[code*4:], word)
	binary.LittleEndian.PutUint16(t.length[code*2:], uint16(strLen))
}

func (t *turboDict) emitKnown(code int, sink Sink) (byte, error) {
	word := binary.LittleEndian.Uint32(t.offlen[code*4:])
	n := int(binary.LittleEndian.Uint16(t.length[code*2:]))
	off := int(word & turboOffMask)
	base := n
	if word&turboSuffixFlag != 0 {
		base = n - 1
	}
	if t.cursor+n > len(t.pool) {
		return 0, fmt.Errorf("%w: string pool exhausted", ErrDecode)
	}
	start := t.cursor
	copy(t.pool[start:], t.pool[off:off+base])
	t.cursor += base
	if word&turboSuffixFlag != 0 {
		t.pool[t.cursor] = byte(word >> 24)
		t.cursor++
	}
	if _, err := sink.Write(t.pool[start:t.cursor]); err != nil {
		return 0, err
	}
	t.prevStart, t.prevLen = t.lastStart, t.lastLen
	t.lastStart, t.lastLen = start, n
	return t.first[code], nil
}

func (t *turboDict) emitNovel(old int, sink Sink) error {
	n := t.lastLen + 1
	if t.cursor+n > len(t.pool) {
		return fmt.Errorf("%w: string pool exhausted", ErrDecode)
	}
	start := t.cursor
	copy(t.pool[start:], t.pool[t.lastStart:t.lastStart+t.lastLen])
	t.cursor += t.lastLen
	t.pool[t.cursor] = t.first[old]
	t.cursor++
	if _, err := sink.Write(t.pool[start:t.cursor]); err != nil {
		return err
	}
	t.setEntry(t.next, uint32(start), n)
	t.first[t.next] = t.first[old]
	t.next++
	t.prevStart, t.prevLen = t.lastStart, t.lastLen
	t.lastStart, t.lastLen = start, n
	return nil
}

func (t *turboDict) insert(old int, firstByte byte) {
	word := uint32(t.prevStart) | turboSuffixFlag | uint32(firstByte)<<24
	t.setEntry(t.next, word, t.prevLen+1)
	t.first[t.next] = t.first[old]
	t.next++
}
