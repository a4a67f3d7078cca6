package bntx

import (
	"encoding/binary"
	"errors"
	"testing"
)

func TestRelocTableRoundTrip(t *testing.T) {
	original := &RelocationTable{
		Sections: []RelocationSection{
			{Pointer: 0, Position: 0x20, Size: 0x100, Index: 0, Count: 2},
			{Pointer: 0, Position: 0x200, Size: 0x80, Index: 2, Count: 1},
		},
		Entries: []RelocationEntry{
			{Position: 0x28, StructCount: 1, OffsetCount: 2, PaddingCount: 0},
			{Position: 0x60, StructCount: 3, OffsetCount: 1, PaddingCount: 1},
			{Position: 0x210, StructCount: 1, OffsetCount: 1, PaddingCount: 0},
		},
	}

	buf := make([]byte, original.Size())
	original.encodeTo(buf, 0, binary.LittleEndian)

	decoded, err := parseRelocTable(&reader{data: buf, order: binary.LittleEndian}, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if len(decoded.Sections) != 2 || len(decoded.Entries) != 3 {
		t.Fatalf("got %d sections, %d entries", len(decoded.Sections), len(decoded.Entries))
	}
	for i, s := range original.Sections {
		if decoded.Sections[i] != s {
			t.Errorf("section %d: got %+v, want %+v", i, decoded.Sections[i], s)
		}
	}
	for i, e := range original.Entries {
		if decoded.Entries[i] != e {
			t.Errorf("entry %d: got %+v, want %+v", i, decoded.Entries[i], e)
		}
	}
}

func TestRelocTableSelfPosition(t *testing.T) {
	table := &RelocationTable{}
	buf := make([]byte, 0x40+table.Size())
	table.encodeTo(buf, 0x40, binary.LittleEndian)

	if got := binary.LittleEndian.Uint32(buf[0x44:]); got != 0x40 {
		t.Errorf("self-position = %#x, want 0x40", got)
	}
}

func TestRelocTableCountMismatch(t *testing.T) {
	// One section declaring more entries than the buffer holds.
	buf := make([]byte, relocHeaderSize+relocSectionSize)
	copy(buf, relocMagic[:])
	binary.LittleEndian.PutUint32(buf[8:], 1)
	binary.LittleEndian.PutUint32(buf[relocHeaderSize+20:], 1000) // section count field

	_, err := parseRelocTable(&reader{data: buf, order: binary.LittleEndian}, 0)
	if !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestRelocTableValidate(t *testing.T) {
	table := &RelocationTable{
		Sections: []RelocationSection{{Count: 2}},
		Entries:  []RelocationEntry{{Position: 4}},
	}
	if err := table.validate(); !errors.Is(err, ErrCountMismatch) {
		t.Errorf("expected ErrCountMismatch, got %v", err)
	}
}

func TestRelocTableBadMagic(t *testing.T) {
	buf := make([]byte, relocHeaderSize)
	copy(buf, "_BAD")
	if _, err := parseRelocTable(&reader{data: buf, order: binary.LittleEndian}, 0); !errors.Is(err, ErrBadMagic) {
		t.Errorf("expected ErrBadMagic, got %v", err)
	}
}
