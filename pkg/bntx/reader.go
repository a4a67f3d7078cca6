package bntx

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// reader provides bounds-checked random access over the whole input buffer.
// On-disk pointers are absolute byte offsets, so resolving one is plain index
// arithmetic; there is no cursor to save or restore, and targets may lie
// before or after the field that references them.
type reader struct {
	data  []byte
	order binary.ByteOrder
}

func (r *reader) bytesAt(off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off+n > len(r.data) {
		return nil, fmt.Errorf("%w: %d bytes at offset %#x (buffer is %d bytes)", ErrUnexpectedEOF, n, off, len(r.data))
	}
	return r.data[off : off+n], nil
}

func (r *reader) u8(off int) (uint8, error) {
	b, err := r.bytesAt(off, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16(off int) (uint16, error) {
	b, err := r.bytesAt(off, 2)
	if err != nil {
		return 0, err
	}
	return r.order.Uint16(b), nil
}

func (r *reader) u32(off int) (uint32, error) {
	b, err := r.bytesAt(off, 4)
	if err != nil {
		return 0, err
	}
	return r.order.Uint32(b), nil
}

func (r *reader) u64(off int) (uint64, error) {
	b, err := r.bytesAt(off, 8)
	if err != nil {
		return 0, err
	}
	return r.order.Uint64(b), nil
}

// ptr64 reads a 64-bit pointer field and validates that its target lies
// within the buffer.
func (r *reader) ptr64(off int) (int, error) {
	v, err := r.u64(off)
	if err != nil {
		return 0, err
	}
	if v > uint64(len(r.data)) {
		return 0, fmt.Errorf("%w: pointer at %#x targets %#x (buffer is %d bytes)", ErrUnexpectedEOF, off, v, len(r.data))
	}
	return int(v), nil
}

// doublePtr64 resolves a pointer-to-pointer field: the first hop lands on
// another 64-bit offset, the second on the value.
func (r *reader) doublePtr64(off int) (int, error) {
	hop, err := r.ptr64(off)
	if err != nil {
		return 0, err
	}
	return r.ptr64(hop)
}

// cstring reads a NUL-terminated string at off. Invalid UTF-8 is replaced,
// never fatal.
func (r *reader) cstring(off int) (string, error) {
	if off < 0 || off > len(r.data) {
		return "", fmt.Errorf("%w: string at offset %#x", ErrUnexpectedEOF, off)
	}
	end := off
	for end < len(r.data) && r.data[end] != 0 {
		end++
	}
	if end == len(r.data) {
		return "", fmt.Errorf("%w: unterminated string at offset %#x", ErrUnexpectedEOF, off)
	}
	return strings.ToValidUTF8(string(r.data[off:end]), "�"), nil
}

// stringRecord reads a length-prefixed string record (u16 length + bytes) at
// off. Invalid UTF-8 is replaced, never fatal.
func (r *reader) stringRecord(off int) (string, error) {
	n, err := r.u16(off)
	if err != nil {
		return "", fmt.Errorf("string record: %w", err)
	}
	b, err := r.bytesAt(off+2, int(n))
	if err != nil {
		return "", fmt.Errorf("string record: %w", err)
	}
	return strings.ToValidUTF8(string(b), "�"), nil
}

// checkMagic validates a 4-byte section tag at off.
func (r *reader) checkMagic(off int, want [4]byte, section string) error {
	b, err := r.bytesAt(off, 4)
	if err != nil {
		return fmt.Errorf("%s: %w", section, err)
	}
	if [4]byte(b) != want {
		return fmt.Errorf("%s: %w: expected %q, got %q", section, ErrBadMagic, want[:], b)
	}
	return nil
}
