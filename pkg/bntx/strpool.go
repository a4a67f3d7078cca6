package bntx

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// String pool section magic "_STR".
var strPoolMagic = [4]byte{'_', 'S', 'T', 'R'}

// strPoolHeaderSize covers the magic, three reserved words and the count.
const strPoolHeaderSize = 20

// placeholderSize is the on-disk size of the mandatory empty record that
// precedes the real entries: a zero length, a NUL, and padding to 4.
const placeholderSize = 4

// StringPool holds the container's ordered string table. The three reserved
// words are opaque and round-tripped verbatim.
type StringPool struct {
	Reserved [3]uint32
	Strings  []string
}

func align4(n int) int {
	return (n + 3) &^ 3
}

// recordSize returns the on-disk size of one string record:
// align4(2-byte length + bytes + NUL).
func recordSize(s string) int {
	return align4(2 + len(s) + 1)
}

// Size returns the exact serialized size of the pool. The layout planner
// relies on this before any bytes are emitted.
func (p *StringPool) Size() int {
	n := strPoolHeaderSize + placeholderSize
	for _, s := range p.Strings {
		n += recordSize(s)
	}
	return n
}

// RecordOffset returns the offset of string i's record relative to the
// section start. The planner uses it to aim name pointers.
func (p *StringPool) RecordOffset(i int) int {
	off := strPoolHeaderSize + placeholderSize
	for j := 0; j < i; j++ {
		off += recordSize(p.Strings[j])
	}
	return off
}

// Index returns the position of s in the pool, or -1.
func (p *StringPool) Index(s string) int {
	for i, v := range p.Strings {
		if v == s {
			return i
		}
	}
	return -1
}

// parseStringPool decodes a "_STR" section at off.
func parseStringPool(r *reader, off int) (*StringPool, error) {
	if err := r.checkMagic(off, strPoolMagic, "string pool"); err != nil {
		return nil, err
	}

	p := &StringPool{}
	for i := range p.Reserved {
		v, err := r.u32(off + 4 + i*4)
		if err != nil {
			return nil, fmt.Errorf("string pool reserved: %w", err)
		}
		p.Reserved[i] = v
	}

	count, err := r.u32(off + 16)
	if err != nil {
		return nil, fmt.Errorf("string pool count: %w", err)
	}

	// Skip the mandatory empty placeholder record.
	pos := off + strPoolHeaderSize + placeholderSize

	p.Strings = make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := r.u16(pos)
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		b, err := r.bytesAt(pos+2, int(n))
		if err != nil {
			return nil, fmt.Errorf("string %d: %w", i, err)
		}
		p.Strings = append(p.Strings, strings.ToValidUTF8(string(b), "�"))
		pos += align4(2 + int(n) + 1)
	}

	return p, nil
}

// encodeTo serializes the pool into buf at off. The buffer region must be
// Size() bytes; padding is already zero.
func (p *StringPool) encodeTo(buf []byte, off int, order binary.ByteOrder) {
	copy(buf[off:], strPoolMagic[:])
	for i, v := range p.Reserved {
		order.PutUint32(buf[off+4+i*4:], v)
	}
	order.PutUint32(buf[off+16:], uint32(len(p.Strings)))

	// Placeholder: zero length, NUL, padding. All zero bytes already.
	pos := off + strPoolHeaderSize + placeholderSize

	for _, s := range p.Strings {
		order.PutUint16(buf[pos:], uint16(len(s)))
		copy(buf[pos+2:], s)
		// Trailing NUL and pad bytes are already zero.
		pos += recordSize(s)
	}
}
