// Package swizzle converts texel data between the Tegra GPU's block-linear
// (tiled) memory layout and ordinary row-major (linear) layout.
//
// The atomic tile unit is the GOB (Group Of Bytes): 64 bytes wide by 8 rows,
// 512 bytes total, with a bit-interleaved internal layout that favors 2-D
// locality. GOBs stack vertically into blocks of 2^blockHeightLog2 GOBs, and
// blocks tile the surface left-to-right, then top-to-bottom.
//
// The transform is byte-granularity address remapping only; it never
// interprets pixel values, so it works for any format once the caller supplies
// bytes-per-element.
package swizzle

import (
	"errors"
	"fmt"
)

// GOB geometry. These are fixed by the hardware.
const (
	GOBWidthBytes = 64
	GOBHeight     = 8
	GOBSize       = GOBWidthBytes * GOBHeight
)

// MaxBlockHeightLog2 bounds the per-surface block height parameter; 2^5 = 32
// GOBs is the largest block the hardware addresses.
const MaxBlockHeightLog2 = 5

// TileMode selects the memory arrangement of a surface.
type TileMode uint16

const (
	// TileModeBlockLinear is the GPU-tiled GOB/block arrangement.
	TileModeBlockLinear TileMode = 0
	// TileModeLinear is plain row-major; the transform is an identity copy.
	TileModeLinear TileMode = 1
)

// ErrDimension reports unusable surface geometry or a buffer too short for it.
var ErrDimension = errors.New("swizzle: invalid dimensions")

// Surface describes one texture surface to be (de)swizzled.
//
// MipCount and LayerCount may each be greater than one; sub-surfaces are laid
// out consecutively (layer-major), every mip level using its own scaled
// dimensions and an independently clamped block height.
type Surface struct {
	Width           uint32
	Height          uint32
	Depth           uint32
	BlockHeightLog2 uint32
	MipCount        uint32
	LayerCount      uint32
	BytesPerPixel   uint32
	TileMode        TileMode
	Is3D            bool
}

func (s Surface) validate() error {
	if s.Width == 0 || s.Height == 0 {
		return fmt.Errorf("%w: %dx%d surface", ErrDimension, s.Width, s.Height)
	}
	if s.Depth == 0 {
		return fmt.Errorf("%w: zero depth", ErrDimension)
	}
	if s.MipCount == 0 || s.LayerCount == 0 {
		return fmt.Errorf("%w: mip count %d, layer count %d", ErrDimension, s.MipCount, s.LayerCount)
	}
	if s.BytesPerPixel == 0 {
		return fmt.Errorf("%w: zero bytes per element", ErrDimension)
	}
	if s.BlockHeightLog2 > MaxBlockHeightLog2 {
		return fmt.Errorf("%w: block height log2 %d exceeds %d", ErrDimension, s.BlockHeightLog2, MaxBlockHeightLog2)
	}
	return nil
}

func divRoundUp(a, b uint32) uint32 {
	return (a + b - 1) / b
}

func mipDim(d, level uint32) uint32 {
	d >>= level
	if d == 0 {
		return 1
	}
	return d
}

// blockHeight returns the effective block height in GOBs for a surface of the
// given height: 2^log2, clamped down so a block never exceeds the number of
// GOB rows the surface actually has.
func blockHeight(height, log2 uint32) uint32 {
	bh := uint32(1) << log2
	heightInGOBs := divRoundUp(height, GOBHeight)
	for bh > 1 && bh > heightInGOBs {
		bh >>= 1
	}
	return bh
}

// PreferredBlockHeightLog2 returns the block height a surface of the given
// height would normally be created with: the largest power of two of GOBs
// not exceeding the surface's GOB-row count, capped at 16.
func PreferredBlockHeightLog2(height uint32) uint32 {
	heightInGOBs := divRoundUp(height, GOBHeight)
	log2 := uint32(0)
	for log2 < 4 && uint32(1)<<(log2+1) <= heightInGOBs {
		log2++
	}
	return log2
}

// gobOffset maps a byte coordinate within one GOB (x in [0,64), y in [0,8))
// to its offset inside the 512-byte GOB.
func gobOffset(x, y uint32) uint32 {
	return (x/32%2)*256 + (y%GOBHeight/2)*64 + (x/16%2)*32 + (y%2)*16 + x%16
}

// tiledOffset maps a byte coordinate on the padded surface to its offset in
// the tiled buffer. x is in bytes, y in rows; widthInGOBs and bh describe the
// tiled extent.
func tiledOffset(x, y, widthInGOBs, bh uint32) uint32 {
	blockRow := y / (GOBHeight * bh)
	gobRowInBlock := y % (GOBHeight * bh) / GOBHeight

	base := blockRow*GOBSize*bh*widthInGOBs + // rows of blocks above
		(x/GOBWidthBytes)*GOBSize*bh + // blocks to the left
		gobRowInBlock*GOBSize // GOBs above within the block
	return base + gobOffset(x%GOBWidthBytes, y%GOBHeight)
}

// levelSizes returns the linear and tiled byte sizes of one 2-D slice of a
// mip level.
func levelSizes(width, height, bpe, log2 uint32) (linear, tiled uint32) {
	bh := blockHeight(height, log2)
	widthInGOBs := divRoundUp(width*bpe, GOBWidthBytes)
	blocksY := divRoundUp(divRoundUp(height, GOBHeight), bh)
	return width * height * bpe, widthInGOBs * blocksY * bh * GOBSize
}

// LinearSize returns the total unpadded byte size of every layer and mip
// level of the surface.
func (s Surface) LinearSize() (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	total := 0
	for layer := uint32(0); layer < s.LayerCount; layer++ {
		for mip := uint32(0); mip < s.MipCount; mip++ {
			w, h, d := mipDim(s.Width, mip), mipDim(s.Height, mip), s.mipDepth(mip)
			lin, _ := levelSizes(w, h, s.BytesPerPixel, s.BlockHeightLog2)
			total += int(lin) * int(d)
		}
	}
	return total, nil
}

// TiledSize returns the total padded byte size of the tiled representation,
// rounded up to whole blocks per level.
func (s Surface) TiledSize() (int, error) {
	if err := s.validate(); err != nil {
		return 0, err
	}
	if s.TileMode == TileModeLinear {
		return s.LinearSize()
	}
	total := 0
	for layer := uint32(0); layer < s.LayerCount; layer++ {
		for mip := uint32(0); mip < s.MipCount; mip++ {
			w, h, d := mipDim(s.Width, mip), mipDim(s.Height, mip), s.mipDepth(mip)
			_, tiled := levelSizes(w, h, s.BytesPerPixel, s.BlockHeightLog2)
			total += int(tiled) * int(d)
		}
	}
	return total, nil
}

func (s Surface) mipDepth(mip uint32) uint32 {
	if s.Is3D {
		return mipDim(s.Depth, mip)
	}
	return s.Depth
}

// MipOffsets returns the byte offset of each mip level within the first
// layer of the tiled representation. Levels are consecutive, each padded to
// whole blocks.
func (s Surface) MipOffsets() ([]int, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	offsets := make([]int, s.MipCount)
	off := 0
	for mip := uint32(0); mip < s.MipCount; mip++ {
		offsets[mip] = off
		w, h, d := mipDim(s.Width, mip), mipDim(s.Height, mip), s.mipDepth(mip)
		lin, tiled := levelSizes(w, h, s.BytesPerPixel, s.BlockHeightLog2)
		if s.TileMode == TileModeLinear {
			tiled = lin
		}
		off += int(tiled) * int(d)
	}
	return offsets, nil
}

// Deswizzle converts tiled bytes to row-major linear bytes. The result is
// exactly LinearSize() long; tiling padding is dropped.
func Deswizzle(s Surface, tiled []byte) ([]byte, error) {
	return s.transform(tiled, false)
}

// Swizzle converts row-major linear bytes to the tiled representation. The
// result is exactly TiledSize() long; padding bytes are zero.
func Swizzle(s Surface, linear []byte) ([]byte, error) {
	return s.transform(linear, true)
}

func (s Surface) transform(src []byte, toTiled bool) ([]byte, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	linTotal, err := s.LinearSize()
	if err != nil {
		return nil, err
	}
	tilTotal, err := s.TiledSize()
	if err != nil {
		return nil, err
	}

	srcTotal, dstTotal := tilTotal, linTotal
	if toTiled {
		srcTotal, dstTotal = linTotal, tilTotal
	}
	if len(src) < srcTotal {
		return nil, fmt.Errorf("%w: need %d source bytes, have %d", ErrDimension, srcTotal, len(src))
	}

	if s.TileMode == TileModeLinear {
		out := make([]byte, dstTotal)
		copy(out, src[:dstTotal])
		return out, nil
	}

	dst := make([]byte, dstTotal)
	srcOff, dstOff := 0, 0
	for layer := uint32(0); layer < s.LayerCount; layer++ {
		for mip := uint32(0); mip < s.MipCount; mip++ {
			w, h, d := mipDim(s.Width, mip), mipDim(s.Height, mip), s.mipDepth(mip)
			lin, til := levelSizes(w, h, s.BytesPerPixel, s.BlockHeightLog2)
			bh := blockHeight(h, s.BlockHeightLog2)
			widthInGOBs := divRoundUp(w*s.BytesPerPixel, GOBWidthBytes)

			for z := uint32(0); z < d; z++ {
				var tiledSlice, linearSlice []byte
				if toTiled {
					linearSlice = src[srcOff : srcOff+int(lin)]
					tiledSlice = dst[dstOff : dstOff+int(til)]
					srcOff += int(lin)
					dstOff += int(til)
				} else {
					tiledSlice = src[srcOff : srcOff+int(til)]
					linearSlice = dst[dstOff : dstOff+int(lin)]
					srcOff += int(til)
					dstOff += int(lin)
				}
				copySlice(tiledSlice, linearSlice, w, h, s.BytesPerPixel, widthInGOBs, bh, toTiled)
			}
		}
	}
	return dst, nil
}

// copySlice moves one 2-D slice between the two layouts, one element at a
// time. Every destination offset is an independent computation, so execution
// order does not matter.
func copySlice(tiled, linear []byte, w, h, bpe, widthInGOBs, bh uint32, toTiled bool) {
	for y := uint32(0); y < h; y++ {
		linRow := y * w * bpe
		for x := uint32(0); x < w; x++ {
			tOff := tiledOffset(x*bpe, y, widthInGOBs, bh)
			lOff := linRow + x*bpe
			if toTiled {
				copy(tiled[tOff:tOff+bpe], linear[lOff:lOff+bpe])
			} else {
				copy(linear[lOff:lOff+bpe], tiled[tOff:tOff+bpe])
			}
		}
	}
}
