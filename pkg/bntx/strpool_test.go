package bntx

import (
	"encoding/binary"
	"testing"
)

func TestStringPoolRoundTrip(t *testing.T) {
	original := &StringPool{
		Reserved: [3]uint32{7, 8, 9},
		Strings:  []string{"", "a", "name_with_9_chars"},
	}

	buf := make([]byte, original.Size())
	original.encodeTo(buf, 0, binary.LittleEndian)

	decoded, err := parseStringPool(&reader{data: buf, order: binary.LittleEndian}, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if decoded.Reserved != original.Reserved {
		t.Errorf("reserved mismatch: got %v, want %v", decoded.Reserved, original.Reserved)
	}
	if len(decoded.Strings) != len(original.Strings) {
		t.Fatalf("expected %d strings, got %d", len(original.Strings), len(decoded.Strings))
	}
	for i, s := range original.Strings {
		if decoded.Strings[i] != s {
			t.Errorf("string %d: got %q, want %q", i, decoded.Strings[i], s)
		}
	}
}

func TestStringPoolRecordSizes(t *testing.T) {
	cases := []struct {
		s    string
		want int
	}{
		{"", 4},                   // align4(2+0+1)
		{"a", 4},                  // align4(2+1+1)
		{"ab", 8},                 // align4(2+2+1)
		{"name_with_9_chars", 20}, // align4(2+17+1)
		{"exactly_13ch!", 16},     // align4(2+13+1)
	}
	for _, tc := range cases {
		if got := recordSize(tc.s); got != tc.want {
			t.Errorf("recordSize(%q) = %d, want %d", tc.s, got, tc.want)
		}
	}
}

func TestStringPoolSize(t *testing.T) {
	p := &StringPool{Strings: []string{"", "a", "name_with_9_chars"}}

	// 5 header words + placeholder + per-record sizes.
	want := 20 + 4 + 4 + 4 + 20
	if got := p.Size(); got != want {
		t.Errorf("Size() = %d, want %d", got, want)
	}

	buf := make([]byte, p.Size())
	p.encodeTo(buf, 0, binary.LittleEndian)

	// The placeholder must be an empty record occupying exactly 4 bytes:
	// zero length, NUL, padding.
	if binary.LittleEndian.Uint16(buf[20:]) != 0 || buf[22] != 0 || buf[23] != 0 {
		t.Errorf("placeholder bytes = % x, want zeros", buf[20:24])
	}
	// First real record follows immediately.
	if binary.LittleEndian.Uint16(buf[24:]) != 0 {
		t.Errorf("first record length = %d, want 0", binary.LittleEndian.Uint16(buf[24:]))
	}
}

func TestStringPoolLossyDecode(t *testing.T) {
	// A record with an invalid UTF-8 byte decodes with a replacement rune,
	// never an error.
	buf := make([]byte, 20+4+8)
	copy(buf, strPoolMagic[:])
	binary.LittleEndian.PutUint32(buf[16:], 1)
	binary.LittleEndian.PutUint16(buf[24:], 2)
	buf[26] = 'x'
	buf[27] = 0xFF

	p, err := parseStringPool(&reader{data: buf, order: binary.LittleEndian}, 0)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Strings[0] != "x�" {
		t.Errorf("got %q, want %q", p.Strings[0], "x�")
	}
}

func TestStringPoolTruncated(t *testing.T) {
	p := &StringPool{Strings: []string{"hello"}}
	buf := make([]byte, p.Size())
	p.encodeTo(buf, 0, binary.LittleEndian)

	if _, err := parseStringPool(&reader{data: buf[:22], order: binary.LittleEndian}, 0); err == nil {
		t.Error("expected error for truncated pool")
	}
}
