package bntx

import "testing"

func TestSurfaceFormatNames(t *testing.T) {
	cases := []struct {
		format SurfaceFormat
		want   string
	}{
		{FormatR8G8B8A8Unorm, "R8G8B8A8_UNORM"},
		{FormatR8G8B8A8Srgb, "R8G8B8A8_SRGB"},
		{FormatBC1Unorm, "BC1_UNORM"},
		{FormatBC7Srgb, "BC7_SRGB"},
		{SurfaceFormat(0x3f01), "UNKNOWN(0x3f01)"},
		{SurfaceFormat(0), "UNKNOWN(0x0000)"},
	}
	for _, tc := range cases {
		if got := tc.format.String(); got != tc.want {
			t.Errorf("String(%#x) = %q, want %q", uint32(tc.format), got, tc.want)
		}
	}
}

func TestSurfaceFormatProperties(t *testing.T) {
	if !FormatBC1Unorm.BlockCompressed() {
		t.Error("BC1 should be block compressed")
	}
	if FormatR8G8B8A8Unorm.BlockCompressed() {
		t.Error("RGBA8 should not be block compressed")
	}
	if got := FormatR8Unorm.BytesPerPixel(); got != 1 {
		t.Errorf("R8 bytes per pixel = %d, want 1", got)
	}
	if got := FormatR5G6B5Unorm.BytesPerPixel(); got != 2 {
		t.Errorf("R5G6B5 bytes per pixel = %d, want 2", got)
	}
	if got := FormatR8G8B8A8Srgb.BytesPerPixel(); got != 4 {
		t.Errorf("RGBA8 bytes per pixel = %d, want 4", got)
	}
	if SurfaceFormat(0xdead).Known() {
		t.Error("0xdead should not be known")
	}
}

func TestTextureValidate(t *testing.T) {
	t.Run("ZeroMips", func(t *testing.T) {
		tex := &Texture{Width: 8, Height: 8, Depth: 1, ArrayLength: 1}
		if err := tex.validate(); err == nil {
			t.Error("expected error for zero mip count")
		}
	})

	t.Run("ImageSizeTooSmall", func(t *testing.T) {
		tex := &Texture{
			Width: 64, Height: 64, Depth: 1,
			MipCount: 1, ArrayLength: 1,
			Format:    FormatR8G8B8A8Unorm,
			ImageSize: 16,
		}
		if err := tex.validate(); err == nil {
			t.Error("expected error for undersized image data")
		}
	})

	t.Run("UnknownFormatSkipsSizeCheck", func(t *testing.T) {
		tex := &Texture{
			Width: 64, Height: 64, Depth: 1,
			MipCount: 1, ArrayLength: 1,
			Format:    SurfaceFormat(0xbeef),
			ImageSize: 16,
		}
		if err := tex.validate(); err != nil {
			t.Errorf("opaque format should not be size-checked: %v", err)
		}
	})
}
