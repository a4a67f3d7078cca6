package bntx

import (
	"encoding/binary"
	"fmt"

	"github.com/nxtools/bntxtools/pkg/swizzle"
)

// Texture descriptor block magic "BRTI".
var textureMagic = [4]byte{'B', 'R', 'T', 'I'}

// brtiFixedSize is the serialized size of the descriptor's fixed field block,
// magic through the double-indirect data pointer.
const brtiFixedSize = 120

// SurfaceFormat is the descriptor's 32-bit pixel format code. Known codes get
// named constants; any other code is carried opaquely and round-trips
// bit-exact, so decoding never fails on an unrecognized format.
type SurfaceFormat uint32

// Known surface format codes. High byte selects the channel layout, low byte
// the data type (0x01 unorm, 0x02 snorm, 0x06 sRGB).
const (
	FormatR8Unorm       SurfaceFormat = 0x0201
	FormatR5G6B5Unorm   SurfaceFormat = 0x0701
	FormatR8G8B8A8Unorm SurfaceFormat = 0x0b01
	FormatR8G8B8A8Srgb  SurfaceFormat = 0x0b06
	FormatB8G8R8A8Unorm SurfaceFormat = 0x0c01
	FormatBC1Unorm      SurfaceFormat = 0x1a01
	FormatBC1Srgb       SurfaceFormat = 0x1a06
	FormatBC2Unorm      SurfaceFormat = 0x1b01
	FormatBC2Srgb       SurfaceFormat = 0x1b06
	FormatBC3Unorm      SurfaceFormat = 0x1c01
	FormatBC3Srgb       SurfaceFormat = 0x1c06
	FormatBC4Unorm      SurfaceFormat = 0x1d01
	FormatBC4Snorm      SurfaceFormat = 0x1d02
	FormatBC5Unorm      SurfaceFormat = 0x1e01
	FormatBC5Snorm      SurfaceFormat = 0x1e02
	FormatBC7Unorm      SurfaceFormat = 0x2001
	FormatBC7Srgb       SurfaceFormat = 0x2006
)

var formatNames = map[SurfaceFormat]string{
	FormatR8Unorm:       "R8_UNORM",
	FormatR5G6B5Unorm:   "R5G6B5_UNORM",
	FormatR8G8B8A8Unorm: "R8G8B8A8_UNORM",
	FormatR8G8B8A8Srgb:  "R8G8B8A8_SRGB",
	FormatB8G8R8A8Unorm: "B8G8R8A8_UNORM",
	FormatBC1Unorm:      "BC1_UNORM",
	FormatBC1Srgb:       "BC1_SRGB",
	FormatBC2Unorm:      "BC2_UNORM",
	FormatBC2Srgb:       "BC2_SRGB",
	FormatBC3Unorm:      "BC3_UNORM",
	FormatBC3Srgb:       "BC3_SRGB",
	FormatBC4Unorm:      "BC4_UNORM",
	FormatBC4Snorm:      "BC4_SNORM",
	FormatBC5Unorm:      "BC5_UNORM",
	FormatBC5Snorm:      "BC5_SNORM",
	FormatBC7Unorm:      "BC7_UNORM",
	FormatBC7Srgb:       "BC7_SRGB",
}

// Known reports whether f is a recognized format code.
func (f SurfaceFormat) Known() bool {
	_, ok := formatNames[f]
	return ok
}

// String returns a human-readable name, or UNKNOWN with the raw code.
func (f SurfaceFormat) String() string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%04x)", uint32(f))
}

// BlockCompressed reports whether f encodes 4x4 pixel blocks rather than
// individual texels.
func (f SurfaceFormat) BlockCompressed() bool {
	return f >= 0x1a00 && f < 0x2100
}

// BytesPerPixel returns the per-texel byte width for uncompressed formats.
// Unrecognized formats fall back to 4, the generic byte-granularity path.
func (f SurfaceFormat) BytesPerPixel() uint32 {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatR5G6B5Unorm:
		return 2
	default:
		return 4
	}
}

// Texture dimensionality codes for the descriptor's Dim field.
const (
	Dim1D uint8 = 1
	Dim2D uint8 = 2
	Dim3D uint8 = 3
)

// Texture is one "BRTI" descriptor plus the tiled texel bytes it owns.
// Reserved fields are carried verbatim.
type Texture struct {
	Size              uint32
	Size2             uint64
	Flags             uint8
	Dim               uint8
	TileMode          swizzle.TileMode
	SwizzleValue      uint16
	MipCount          uint16
	MultiSampleCount  uint32
	Format            SurfaceFormat
	Reserved          uint32
	Width             uint32
	Height            uint32
	Depth             uint32
	ArrayLength       uint32
	BlockHeightLog2   uint32
	Reserved2         [6]uint32
	ImageSize         uint32
	Alignment         uint32
	ComponentSelector uint32
	Kind              uint32
	Name              string
	ParentAddr        uint64 // unused by the format, preserved
	Data              []byte // tiled texel bytes
}

// surface builds the tiling engine parameters for this descriptor.
func (t *Texture) surface() swizzle.Surface {
	return swizzle.Surface{
		Width:           t.Width,
		Height:          t.Height,
		Depth:           t.Depth,
		BlockHeightLog2: t.BlockHeightLog2,
		MipCount:        uint32(t.MipCount),
		LayerCount:      t.ArrayLength,
		BytesPerPixel:   t.Format.BytesPerPixel(),
		TileMode:        t.TileMode,
		Is3D:            t.Dim == Dim3D,
	}
}

// validate checks the descriptor's structural invariants. The tiled-extent
// check only applies to uncompressed known formats; block-compressed and
// unrecognized formats are carried opaquely.
func (t *Texture) validate() error {
	if t.Width == 0 || t.Height == 0 || t.Depth == 0 {
		return fmt.Errorf("texture %q: %w: %dx%dx%d", t.Name, ErrMalformed, t.Width, t.Height, t.Depth)
	}
	if t.MipCount < 1 || t.ArrayLength < 1 {
		return fmt.Errorf("texture %q: %w: mip count %d, array length %d", t.Name, ErrMalformed, t.MipCount, t.ArrayLength)
	}
	if t.Format.Known() && !t.Format.BlockCompressed() {
		tiled, err := t.surface().TiledSize()
		if err != nil {
			return fmt.Errorf("texture %q: %w", t.Name, err)
		}
		if int(t.ImageSize) < tiled {
			return fmt.Errorf("texture %q: %w: image size %d smaller than tiled extent %d", t.Name, ErrMalformed, t.ImageSize, tiled)
		}
	}
	return nil
}

// parseTexture decodes one "BRTI" block at off. The name pointer resolves to
// a string record; the data pointer resolves through the per-mip offset table
// (two hops) to ImageSize raw tiled bytes.
func parseTexture(r *reader, off int) (*Texture, error) {
	if err := r.checkMagic(off, textureMagic, "texture"); err != nil {
		return nil, err
	}

	// The scalar block is contiguous; one bounds check covers it.
	if _, err := r.bytesAt(off, brtiFixedSize); err != nil {
		return nil, fmt.Errorf("texture: %w", err)
	}

	t := &Texture{}
	t.Size, _ = r.u32(off + 4)
	t.Size2, _ = r.u64(off + 8)
	t.Flags, _ = r.u8(off + 16)
	t.Dim, _ = r.u8(off + 17)
	tileMode, _ := r.u16(off + 18)
	t.TileMode = swizzle.TileMode(tileMode)
	t.SwizzleValue, _ = r.u16(off + 20)
	t.MipCount, _ = r.u16(off + 22)
	t.MultiSampleCount, _ = r.u32(off + 24)
	format, _ := r.u32(off + 28)
	t.Format = SurfaceFormat(format)
	t.Reserved, _ = r.u32(off + 32)
	t.Width, _ = r.u32(off + 36)
	t.Height, _ = r.u32(off + 40)
	t.Depth, _ = r.u32(off + 44)
	t.ArrayLength, _ = r.u32(off + 48)
	t.BlockHeightLog2, _ = r.u32(off + 52)
	for i := range t.Reserved2 {
		t.Reserved2[i], _ = r.u32(off + 56 + i*4)
	}
	t.ImageSize, _ = r.u32(off + 80)
	t.Alignment, _ = r.u32(off + 84)
	t.ComponentSelector, _ = r.u32(off + 88)
	t.Kind, _ = r.u32(off + 92)

	nameAddr, err := r.ptr64(off + 96)
	if err != nil {
		return nil, fmt.Errorf("texture name pointer: %w", err)
	}
	if t.Name, err = r.stringRecord(nameAddr); err != nil {
		return nil, fmt.Errorf("texture name: %w", err)
	}

	t.ParentAddr, _ = r.u64(off + 104)

	dataAddr, err := r.doublePtr64(off + 112)
	if err != nil {
		return nil, fmt.Errorf("texture data pointer: %w", err)
	}
	data, err := r.bytesAt(dataAddr, int(t.ImageSize))
	if err != nil {
		return nil, fmt.Errorf("texture data: %w", err)
	}
	t.Data = append([]byte(nil), data...)

	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// encodeTo serializes the descriptor's fixed block into buf at off. The three
// pointer fields come from the layout plan: nameAddr aims at the name's
// string record, mipTableAddr at this texture's per-mip offset table.
func (t *Texture) encodeTo(buf []byte, off int, order binary.ByteOrder, nameAddr, mipTableAddr int) {
	copy(buf[off:], textureMagic[:])
	order.PutUint32(buf[off+4:], t.Size)
	order.PutUint64(buf[off+8:], t.Size2)
	buf[off+16] = t.Flags
	buf[off+17] = t.Dim
	order.PutUint16(buf[off+18:], uint16(t.TileMode))
	order.PutUint16(buf[off+20:], t.SwizzleValue)
	order.PutUint16(buf[off+22:], t.MipCount)
	order.PutUint32(buf[off+24:], t.MultiSampleCount)
	order.PutUint32(buf[off+28:], uint32(t.Format))
	order.PutUint32(buf[off+32:], t.Reserved)
	order.PutUint32(buf[off+36:], t.Width)
	order.PutUint32(buf[off+40:], t.Height)
	order.PutUint32(buf[off+44:], t.Depth)
	order.PutUint32(buf[off+48:], t.ArrayLength)
	order.PutUint32(buf[off+52:], t.BlockHeightLog2)
	for i, v := range t.Reserved2 {
		order.PutUint32(buf[off+56+i*4:], v)
	}
	order.PutUint32(buf[off+80:], t.ImageSize)
	order.PutUint32(buf[off+84:], t.Alignment)
	order.PutUint32(buf[off+88:], t.ComponentSelector)
	order.PutUint32(buf[off+92:], t.Kind)
	order.PutUint64(buf[off+96:], uint64(nameAddr))
	order.PutUint64(buf[off+104:], t.ParentAddr)
	order.PutUint64(buf[off+112:], uint64(mipTableAddr))
}
