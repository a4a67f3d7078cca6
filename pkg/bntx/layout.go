package bntx

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Fixed positions of the leading sections. The string pool sits in a reserved
// gap sized so a renamed texture can be patched in place without moving every
// section after it; a pool that outgrows the gap is a layout error.
const (
	strPoolOffset   = headerSize + nxHeaderSize // 0x48
	infoArrayOffset = 0x100
	strPoolCapacity = infoArrayOffset - strPoolOffset
)

// brtdHeaderSize covers the texel-data segment header: magic, reserved word
// and a 64-bit block size.
const brtdHeaderSize = 16

// Texel data block magic "BRTD".
var dataBlockMagic = [4]byte{'B', 'R', 'T', 'D'}

// defaultDataAlignment is used when a descriptor does not declare one.
const defaultDataAlignment = 512

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// layoutPlan holds the analytically computed offset of every section. Encode
// serializes strictly in this order; nothing is back-patched.
type layoutPlan struct {
	infoArray int
	dict      int
	brti      []int
	mipTable  []int
	dataBlock int   // BRTD segment header
	data      []int // per-texture texel bytes
	reloc     int
	fileSize  int
}

// planLayout validates the container and computes every section offset. It
// fails before any output byte is produced.
func planLayout(c *Container) (*layoutPlan, error) {
	if len(c.Textures) == 0 {
		return nil, fmt.Errorf("plan: %w: container has no textures", ErrMalformed)
	}
	if c.StringPool == nil || c.Reloc == nil {
		return nil, fmt.Errorf("plan: %w: missing string pool or relocation table", ErrMalformed)
	}
	if err := c.Reloc.validate(); err != nil {
		return nil, err
	}
	if len(c.Dict) < 4 || [4]byte(c.Dict[0:4]) != dictMagic {
		return nil, fmt.Errorf("plan: dictionary: %w", ErrBadMagic)
	}

	if c.StringPool.Index(c.Name) < 0 {
		return nil, fmt.Errorf("plan: %w: container name %q not in string pool", ErrLayout, c.Name)
	}
	for i, tex := range c.Textures {
		if err := tex.validate(); err != nil {
			return nil, err
		}
		if c.StringPool.Index(tex.Name) < 0 {
			return nil, fmt.Errorf("plan: %w: texture %d name %q not in string pool", ErrLayout, i, tex.Name)
		}
	}

	if size := c.StringPool.Size(); size > strPoolCapacity {
		return nil, fmt.Errorf("plan: %w: string pool needs %d bytes, gap holds %d", ErrLayout, size, strPoolCapacity)
	}

	p := &layoutPlan{
		infoArray: infoArrayOffset,
		brti:      make([]int, len(c.Textures)),
		mipTable:  make([]int, len(c.Textures)),
		data:      make([]int, len(c.Textures)),
	}

	off := infoArrayOffset + 8*len(c.Textures)
	p.dict = alignUp(off, 8)
	off = p.dict + len(c.Dict)

	dataAlign := defaultDataAlignment
	for i, tex := range c.Textures {
		p.brti[i] = alignUp(off, 16)
		p.mipTable[i] = p.brti[i] + brtiFixedSize
		off = p.mipTable[i] + 8*int(tex.MipCount)
		if int(tex.Alignment) > dataAlign {
			dataAlign = int(tex.Alignment)
		}
	}

	// Place the segment header so the first texel byte lands aligned.
	p.dataBlock = alignUp(off+brtdHeaderSize, dataAlign) - brtdHeaderSize
	dataOff := p.dataBlock + brtdHeaderSize
	for i, tex := range c.Textures {
		align := int(tex.Alignment)
		if align == 0 {
			align = defaultDataAlignment
		}
		p.data[i] = alignUp(dataOff, align)
		dataOff = p.data[i] + len(tex.Data)
	}

	p.reloc = alignUp(dataOff, 8)
	p.fileSize = p.reloc + c.Reloc.Size()

	if int64(p.fileSize) > math.MaxUint32 {
		return nil, fmt.Errorf("plan: %w: file size %d exceeds 32-bit limit", ErrLayout, p.fileSize)
	}
	return p, nil
}

// Encode serializes the container. The layout plan runs first and any
// validation failure aborts before a byte is written.
func Encode(c *Container) ([]byte, error) {
	plan, err := planLayout(c)
	if err != nil {
		return nil, err
	}

	order := c.Order()
	buf := make([]byte, plan.fileSize)

	// Header. The version pair stays little-endian, the byte order marker
	// is stored big-endian; everything else follows the container's order.
	copy(buf[0:], containerMagic[:])
	binary.LittleEndian.PutUint16(buf[0x08:], c.VersionMajor)
	binary.LittleEndian.PutUint16(buf[0x0A:], c.VersionMinor)
	if c.LittleEndian {
		binary.BigEndian.PutUint16(buf[0x0C:], bomLittleEndian)
	} else {
		binary.BigEndian.PutUint16(buf[0x0C:], bomBigEndian)
	}
	order.PutUint16(buf[0x0E:], c.Revision)

	// Display name points at the record's character bytes, past the length
	// prefix.
	nameRecord := strPoolOffset + c.StringPool.RecordOffset(c.StringPool.Index(c.Name))
	order.PutUint32(buf[0x10:], uint32(nameRecord+2))
	order.PutUint16(buf[0x16:], uint16(strPoolOffset))
	order.PutUint32(buf[0x18:], uint32(plan.reloc))
	order.PutUint32(buf[0x1C:], uint32(plan.fileSize))

	// NX block.
	copy(buf[headerSize:], nxMagic[:])
	order.PutUint32(buf[headerSize+4:], uint32(len(c.Textures)))
	order.PutUint64(buf[headerSize+8:], uint64(plan.infoArray))
	order.PutUint64(buf[headerSize+16:], uint64(plan.dataBlock))
	order.PutUint64(buf[headerSize+24:], uint64(plan.dict))
	order.PutUint64(buf[headerSize+32:], uint64(len(c.Dict)))

	c.StringPool.encodeTo(buf, strPoolOffset, order)

	for i := range c.Textures {
		order.PutUint64(buf[plan.infoArray+i*8:], uint64(plan.brti[i]))
	}

	copy(buf[plan.dict:], c.Dict)

	for i, tex := range c.Textures {
		nameAddr := strPoolOffset + c.StringPool.RecordOffset(c.StringPool.Index(tex.Name))
		tex.encodeTo(buf, plan.brti[i], order, nameAddr, plan.mipTable[i])

		mipOffsets, err := tex.surface().MipOffsets()
		if err != nil {
			return nil, fmt.Errorf("texture %d mip table: %w", i, err)
		}
		for j, mipOff := range mipOffsets {
			order.PutUint64(buf[plan.mipTable[i]+j*8:], uint64(plan.data[i]+mipOff))
		}

		copy(buf[plan.data[i]:], tex.Data)
	}

	copy(buf[plan.dataBlock:], dataBlockMagic[:])
	blockEnd := plan.data[len(plan.data)-1] + len(c.Textures[len(c.Textures)-1].Data)
	order.PutUint64(buf[plan.dataBlock+8:], uint64(blockEnd-plan.dataBlock))

	c.Reloc.encodeTo(buf, plan.reloc, order)

	return buf, nil
}
