package bntx

import (
	"fmt"

	"github.com/nxtools/bntxtools/pkg/swizzle"
)

// Default descriptor fields for the construction path, matching files
// produced by the originating tool.
const (
	defaultAlignment         = 512
	defaultComponentSelector = 0x00010203 // R, G, B, A
	defaultTextureKind       = 1
	defaultFlags             = 1
)

// ToPixels deswizzles the first texture into a row-major RGBA8 buffer of
// exactly width*height*4 bytes, ready for an external image encoder. Only
// 4-byte-per-texel uncompressed formats are convertible; anything else is
// carried opaquely by the codec and refused here.
func (c *Container) ToPixels() (width, height uint32, rgba []byte, err error) {
	if len(c.Textures) == 0 {
		return 0, 0, nil, fmt.Errorf("to pixels: %w: container has no textures", ErrMalformed)
	}
	tex := c.Textures[0]
	if !tex.Format.Known() || tex.Format.BlockCompressed() || tex.Format.BytesPerPixel() != 4 {
		return 0, 0, nil, fmt.Errorf("to pixels: %s: %w", tex.Format, ErrUnsupportedFormat)
	}

	linear, err := swizzle.Deswizzle(tex.surface(), tex.Data)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("to pixels: %w", err)
	}

	// The linear buffer covers every mip and layer; the pixel area is the
	// leading base level.
	need := int(tex.Width) * int(tex.Height) * 4
	if len(linear) < need {
		return 0, 0, nil, fmt.Errorf("to pixels: %w: deswizzled %d bytes, pixel area is %d", swizzle.ErrDimension, len(linear), need)
	}
	return tex.Width, tex.Height, linear[:need], nil
}

// FromPixels builds a single-texture, single-mip, single-layer container from
// a row-major RGBA8 buffer, swizzling the pixels into the tiled layout. The
// string pool, dictionary and relocation table are synthesized.
func FromPixels(width, height uint32, rgba []byte, name string) (*Container, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("from pixels: %w: %dx%d", swizzle.ErrDimension, width, height)
	}
	need := int(width) * int(height) * 4
	if len(rgba) < need {
		return nil, fmt.Errorf("from pixels: %w: need %d bytes for %dx%d, have %d", swizzle.ErrDimension, need, width, height, len(rgba))
	}

	surface := swizzle.Surface{
		Width:           width,
		Height:          height,
		Depth:           1,
		BlockHeightLog2: swizzle.PreferredBlockHeightLog2(height),
		MipCount:        1,
		LayerCount:      1,
		BytesPerPixel:   4,
		TileMode:        swizzle.TileModeBlockLinear,
	}
	tiled, err := swizzle.Swizzle(surface, rgba[:need])
	if err != nil {
		return nil, fmt.Errorf("from pixels: %w", err)
	}

	tex := &Texture{
		Size:              brtiFixedSize + 8, // fixed block plus one mip table entry
		Size2:             brtiFixedSize + 8,
		Flags:             defaultFlags,
		Dim:               Dim2D,
		TileMode:          swizzle.TileModeBlockLinear,
		MipCount:          1,
		MultiSampleCount:  1,
		Format:            FormatR8G8B8A8Srgb,
		Width:             width,
		Height:            height,
		Depth:             1,
		ArrayLength:       1,
		BlockHeightLog2:   surface.BlockHeightLog2,
		ImageSize:         uint32(len(tiled)),
		Alignment:         defaultAlignment,
		ComponentSelector: defaultComponentSelector,
		Kind:              defaultTextureKind,
		Name:              name,
		Data:              tiled,
	}

	return &Container{
		VersionMajor: defaultVersionMajor,
		VersionMinor: defaultVersionMinor,
		LittleEndian: true,
		Revision:     defaultRevision,
		Name:         name,
		StringPool:   &StringPool{Strings: []string{name}},
		Reloc:        &RelocationTable{},
		Textures:     []*Texture{tex},
		Dict:         defaultDict(),
	}, nil
}

// defaultDict returns a minimal tag-valid dictionary blob. The section is
// opaque to this codec, so only the magic matters.
func defaultDict() []byte {
	dict := make([]byte, 0x28)
	copy(dict, dictMagic[:])
	return dict
}
