// Package bntx decodes and encodes the BNTX GPU texture container format: a
// tagged, pointer-indirected binary layout holding a string pool, a
// relocation table, a name dictionary and one or more texture descriptors
// whose texel data is stored in the GPU's block-linear (tiled) arrangement.
//
// Decoding loads the whole input into one addressable buffer and resolves
// every on-disk pointer as a direct index, forward or backward. Encoding runs
// an explicit layout-planning pass that computes every section's offset
// analytically before a single byte is written; the format has no delimiters,
// so the plan is the only source of truth for where sections land.
package bntx

import (
	"encoding/binary"
	"fmt"
)

// Container file magic "BNTX".
var containerMagic = [4]byte{'B', 'N', 'T', 'X'}

// Dictionary section magic "_DIC".
var dictMagic = [4]byte{'_', 'D', 'I', 'C'}

// NX platform block magic "NX  ".
var nxMagic = [4]byte{'N', 'X', ' ', ' '}

const (
	headerSize   = 0x20
	nxHeaderSize = 0x28

	// Byte order marker values, always read big-endian.
	bomLittleEndian = 0xFFFE
	bomBigEndian    = 0xFEFF
)

// Defaults used by the construction path, matching files produced by the
// originating tool.
const (
	defaultVersionMajor = 0
	defaultVersionMinor = 4
	defaultRevision     = 0x400c
)

// Container is one fully parsed BNTX file. It is built either by Decode or by
// FromPixels, and consumed by Encode; there is no in-place mutation API. The
// container exclusively owns every nested section.
type Container struct {
	VersionMajor uint16
	VersionMinor uint16
	LittleEndian bool
	Revision     uint16

	// Name is the container's display name, one of the string pool entries.
	Name string

	StringPool *StringPool
	Reloc      *RelocationTable
	Textures   []*Texture

	// Dict is the "_DIC" name dictionary blob, tag-validated but otherwise
	// opaque; carried through unmodified.
	Dict []byte
}

// Order returns the byte order every multi-byte field of the container is
// encoded with.
func (c *Container) Order() binary.ByteOrder {
	if c.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Decode parses a complete BNTX byte buffer. The header is parsed strictly
// sequentially until the byte order marker is known; everything after that is
// reached by following absolute offsets.
func Decode(data []byte) (*Container, error) {
	if len(data) < headerSize+nxHeaderSize {
		return nil, fmt.Errorf("header: %w: %d bytes", ErrUnexpectedEOF, len(data))
	}
	if [4]byte(data[0:4]) != containerMagic {
		return nil, fmt.Errorf("header: %w: expected %q, got %q", ErrBadMagic, containerMagic[:], data[0:4])
	}

	c := &Container{}

	// The version pair precedes the byte order marker and is always
	// little-endian.
	c.VersionMajor = binary.LittleEndian.Uint16(data[0x08:])
	c.VersionMinor = binary.LittleEndian.Uint16(data[0x0A:])

	switch binary.BigEndian.Uint16(data[0x0C:]) {
	case bomLittleEndian:
		c.LittleEndian = true
	case bomBigEndian:
		c.LittleEndian = false
	default:
		return nil, fmt.Errorf("byte order marker: %w: %#04x", ErrBadMagic, binary.BigEndian.Uint16(data[0x0C:]))
	}

	r := &reader{data: data, order: c.Order()}

	c.Revision, _ = r.u16(0x0E)

	nameAddr, err := r.u32(0x10)
	if err != nil {
		return nil, fmt.Errorf("name pointer: %w", err)
	}
	if c.Name, err = r.cstring(int(nameAddr)); err != nil {
		return nil, fmt.Errorf("container name: %w", err)
	}

	strPoolAddr, _ := r.u16(0x16)
	if c.StringPool, err = parseStringPool(r, int(strPoolAddr)); err != nil {
		return nil, err
	}

	relocAddr, _ := r.u32(0x18)
	if c.Reloc, err = parseRelocTable(r, int(relocAddr)); err != nil {
		return nil, err
	}

	if err := r.checkMagic(headerSize, nxMagic, "nx header"); err != nil {
		return nil, err
	}

	count, _ := r.u32(headerSize + 4)
	if count == 0 {
		return nil, fmt.Errorf("nx header: %w: zero textures", ErrMalformed)
	}

	// Double indirection: the info pointer lands on an array of pointers,
	// one per descriptor.
	infoArray, err := r.ptr64(headerSize + 8)
	if err != nil {
		return nil, fmt.Errorf("texture info pointer: %w", err)
	}
	c.Textures = make([]*Texture, 0, count)
	for i := uint32(0); i < count; i++ {
		brtiAddr, err := r.ptr64(infoArray + int(i)*8)
		if err != nil {
			return nil, fmt.Errorf("texture %d pointer: %w", i, err)
		}
		tex, err := parseTexture(r, brtiAddr)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
		c.Textures = append(c.Textures, tex)
	}

	dictAddr, err := r.ptr64(headerSize + 24)
	if err != nil {
		return nil, fmt.Errorf("dictionary pointer: %w", err)
	}
	dictSize, _ := r.u64(headerSize + 32)
	if err := r.checkMagic(dictAddr, dictMagic, "dictionary"); err != nil {
		return nil, err
	}
	dict, err := r.bytesAt(dictAddr, int(dictSize))
	if err != nil {
		return nil, fmt.Errorf("dictionary: %w", err)
	}
	c.Dict = append([]byte(nil), dict...)

	return c, nil
}
