package bntx

import (
	"encoding/binary"
	"fmt"
)

// Relocation table section magic "_RLT".
var relocMagic = [4]byte{'_', 'R', 'L', 'T'}

const (
	relocHeaderSize  = 16 // magic + position + section count + reserved
	relocSectionSize = 24
	relocEntrySize   = 8
)

// RelocationSection declares one run of relocation entries.
type RelocationSection struct {
	Pointer  uint64
	Position uint32
	Size     uint32
	Index    uint32
	Count    uint32
}

// RelocationEntry records one pointer-patch site. The counts instruct a
// loader's fixup pass; this codec never interprets them, it only carries
// them through.
type RelocationEntry struct {
	Position     uint32
	StructCount  uint16
	OffsetCount  uint8
	PaddingCount uint8
}

// RelocationTable is opaque pointer-patch metadata, preserved verbatim. Only
// its shape is validated: the flat entry array's length must equal the sum of
// the declared section counts. The table's own file position is recomputed
// from the layout plan at encode time.
type RelocationTable struct {
	Sections []RelocationSection
	Entries  []RelocationEntry
}

// Size returns the exact serialized size of the table.
func (t *RelocationTable) Size() int {
	return relocHeaderSize + len(t.Sections)*relocSectionSize + len(t.Entries)*relocEntrySize
}

// validate checks the table's shape before encoding.
func (t *RelocationTable) validate() error {
	total := 0
	for _, s := range t.Sections {
		total += int(s.Count)
	}
	if total != len(t.Entries) {
		return fmt.Errorf("relocation table: %w: sections declare %d entries, have %d", ErrCountMismatch, total, len(t.Entries))
	}
	return nil
}

// parseRelocTable decodes a "_RLT" section at off.
func parseRelocTable(r *reader, off int) (*RelocationTable, error) {
	if err := r.checkMagic(off, relocMagic, "relocation table"); err != nil {
		return nil, err
	}

	// Self-position; superseded by the layout plan on write.
	if _, err := r.u32(off + 4); err != nil {
		return nil, fmt.Errorf("relocation table position: %w", err)
	}

	sectionCount, err := r.u32(off + 8)
	if err != nil {
		return nil, fmt.Errorf("relocation table section count: %w", err)
	}

	t := &RelocationTable{Sections: make([]RelocationSection, sectionCount)}
	pos := off + relocHeaderSize
	total := 0
	for i := range t.Sections {
		s := &t.Sections[i]
		if s.Pointer, err = r.u64(pos); err != nil {
			return nil, fmt.Errorf("relocation section %d: %w", i, err)
		}
		if s.Position, err = r.u32(pos + 8); err != nil {
			return nil, fmt.Errorf("relocation section %d: %w", i, err)
		}
		if s.Size, err = r.u32(pos + 12); err != nil {
			return nil, fmt.Errorf("relocation section %d: %w", i, err)
		}
		if s.Index, err = r.u32(pos + 16); err != nil {
			return nil, fmt.Errorf("relocation section %d: %w", i, err)
		}
		if s.Count, err = r.u32(pos + 20); err != nil {
			return nil, fmt.Errorf("relocation section %d: %w", i, err)
		}
		total += int(s.Count)
		pos += relocSectionSize
	}

	if _, err := r.bytesAt(pos, total*relocEntrySize); err != nil {
		return nil, fmt.Errorf("relocation entries: %w: %d sections declare %d entries", ErrCountMismatch, sectionCount, total)
	}

	t.Entries = make([]RelocationEntry, total)
	for i := range t.Entries {
		e := &t.Entries[i]
		e.Position, _ = r.u32(pos)
		e.StructCount, _ = r.u16(pos + 4)
		e.OffsetCount, _ = r.u8(pos + 6)
		e.PaddingCount, _ = r.u8(pos + 7)
		pos += relocEntrySize
	}

	return t, nil
}

// encodeTo serializes the table into buf at off, recording off as the
// table's self-position.
func (t *RelocationTable) encodeTo(buf []byte, off int, order binary.ByteOrder) {
	copy(buf[off:], relocMagic[:])
	order.PutUint32(buf[off+4:], uint32(off))
	order.PutUint32(buf[off+8:], uint32(len(t.Sections)))
	// 4 reserved bytes remain zero.

	pos := off + relocHeaderSize
	for _, s := range t.Sections {
		order.PutUint64(buf[pos:], s.Pointer)
		order.PutUint32(buf[pos+8:], s.Position)
		order.PutUint32(buf[pos+12:], s.Size)
		order.PutUint32(buf[pos+16:], s.Index)
		order.PutUint32(buf[pos+20:], s.Count)
		pos += relocSectionSize
	}
	for _, e := range t.Entries {
		order.PutUint32(buf[pos:], e.Position)
		order.PutUint16(buf[pos+4:], e.StructCount)
		buf[pos+6] = e.OffsetCount
		buf[pos+7] = e.PaddingCount
		pos += relocEntrySize
	}
}
