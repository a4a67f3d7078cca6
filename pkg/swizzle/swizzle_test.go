package swizzle

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func testSurface(w, h uint32, mode TileMode) Surface {
	return Surface{
		Width:           w,
		Height:          h,
		Depth:           1,
		BlockHeightLog2: 4,
		MipCount:        1,
		LayerCount:      1,
		BytesPerPixel:   4,
		TileMode:        mode,
	}
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(0x5eed))
	buf := make([]byte, n)
	rng.Read(buf)
	return buf
}

func TestLinearIdentity(t *testing.T) {
	s := testSurface(31, 9, TileModeLinear)
	data := randomBytes(t, 31*9*4)

	swizzled, err := Swizzle(s, data)
	if err != nil {
		t.Fatalf("swizzle: %v", err)
	}
	if !bytes.Equal(swizzled, data) {
		t.Error("linear swizzle is not an identity copy")
	}

	deswizzled, err := Deswizzle(s, data)
	if err != nil {
		t.Fatalf("deswizzle: %v", err)
	}
	if !bytes.Equal(deswizzled, data) {
		t.Error("linear deswizzle is not an identity copy")
	}
}

func TestRoundTrip(t *testing.T) {
	dims := []struct {
		name string
		w, h uint32
	}{
		{"SingleGOB", 16, 8},
		{"Pow2", 64, 64},
		{"Wide", 256, 32},
		{"Tall", 32, 256},
		{"NonPow2", 100, 37},
		{"OnePixel", 1, 1},
	}

	for _, d := range dims {
		t.Run(d.name, func(t *testing.T) {
			s := testSurface(d.w, d.h, TileModeBlockLinear)
			linear := randomBytes(t, int(d.w*d.h*4))

			tiled, err := Swizzle(s, linear)
			if err != nil {
				t.Fatalf("swizzle: %v", err)
			}
			if len(tiled) < len(linear) {
				t.Fatalf("tiled size %d smaller than linear %d", len(tiled), len(linear))
			}

			back, err := Deswizzle(s, tiled)
			if err != nil {
				t.Fatalf("deswizzle: %v", err)
			}
			if !bytes.Equal(back, linear) {
				t.Error("round trip mismatch")
			}
		})
	}
}

func TestDeswizzleOutputLength(t *testing.T) {
	s := testSurface(100, 37, TileModeBlockLinear)
	tiledSize, err := s.TiledSize()
	if err != nil {
		t.Fatalf("tiled size: %v", err)
	}

	out, err := Deswizzle(s, make([]byte, tiledSize))
	if err != nil {
		t.Fatalf("deswizzle: %v", err)
	}
	if len(out) != 100*37*4 {
		t.Errorf("expected %d output bytes, got %d", 100*37*4, len(out))
	}
}

// TestSingleGOBOracle checks the swizzled layout of one GOB byte-by-byte
// against the documented bit-interleave formula.
func TestSingleGOBOracle(t *testing.T) {
	// 64 elements wide, 1 byte per element, 8 rows: exactly one GOB.
	s := Surface{
		Width:           GOBWidthBytes,
		Height:          GOBHeight,
		Depth:           1,
		BlockHeightLog2: 0,
		MipCount:        1,
		LayerCount:      1,
		BytesPerPixel:   1,
		TileMode:        TileModeBlockLinear,
	}

	linear := make([]byte, GOBSize)
	for i := range linear {
		linear[i] = byte(i)
	}

	tiled, err := Swizzle(s, linear)
	if err != nil {
		t.Fatalf("swizzle: %v", err)
	}
	if len(tiled) != GOBSize {
		t.Fatalf("expected one GOB (%d bytes), got %d", GOBSize, len(tiled))
	}

	for y := uint32(0); y < GOBHeight; y++ {
		for x := uint32(0); x < GOBWidthBytes; x++ {
			want := linear[y*GOBWidthBytes+x]
			offset := (x/32%2)*256 + (y/2)*64 + (x/16%2)*32 + (y%2)*16 + x%16
			if got := tiled[offset]; got != want {
				t.Fatalf("GOB byte (%d,%d): offset %d = %#x, want %#x", x, y, offset, got, want)
			}
		}
	}
}

func TestBlockHeightClamp(t *testing.T) {
	// 16 rows = 2 GOB rows; a declared block height of 16 GOBs must clamp to 2.
	if bh := blockHeight(16, 4); bh != 2 {
		t.Errorf("expected clamped block height 2, got %d", bh)
	}
	if bh := blockHeight(1024, 4); bh != 16 {
		t.Errorf("expected block height 16, got %d", bh)
	}
	if bh := blockHeight(1, 5); bh != 1 {
		t.Errorf("expected block height 1, got %d", bh)
	}
}

func TestMipsAndLayersConsecutive(t *testing.T) {
	s := Surface{
		Width:           64,
		Height:          64,
		Depth:           1,
		BlockHeightLog2: 2,
		MipCount:        3,
		LayerCount:      2,
		BytesPerPixel:   4,
		TileMode:        TileModeBlockLinear,
	}

	linSize, err := s.LinearSize()
	if err != nil {
		t.Fatalf("linear size: %v", err)
	}
	// Two layers of 64x64 + 32x32 + 16x16, 4 bytes each.
	want := 2 * 4 * (64*64 + 32*32 + 16*16)
	if linSize != want {
		t.Fatalf("expected linear size %d, got %d", want, linSize)
	}

	linear := randomBytes(t, linSize)
	tiled, err := Swizzle(s, linear)
	if err != nil {
		t.Fatalf("swizzle: %v", err)
	}
	back, err := Deswizzle(s, tiled)
	if err != nil {
		t.Fatalf("deswizzle: %v", err)
	}
	if !bytes.Equal(back, linear) {
		t.Error("multi-level round trip mismatch")
	}
}

func TestDimensionErrors(t *testing.T) {
	cases := []struct {
		name string
		s    Surface
		src  []byte
	}{
		{"ZeroWidth", testSurface(0, 8, TileModeBlockLinear), nil},
		{"ZeroHeight", testSurface(8, 0, TileModeBlockLinear), nil},
		{"ShortBuffer", testSurface(64, 64, TileModeBlockLinear), make([]byte, 16)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Swizzle(tc.s, tc.src); !errors.Is(err, ErrDimension) {
				t.Errorf("expected ErrDimension, got %v", err)
			}
		})
	}

	zeroMips := testSurface(8, 8, TileModeBlockLinear)
	zeroMips.MipCount = 0
	if _, err := Deswizzle(zeroMips, nil); !errors.Is(err, ErrDimension) {
		t.Errorf("expected ErrDimension for zero mip count, got %v", err)
	}
}
