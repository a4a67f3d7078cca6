package archive

import (
	"bytes"
	"testing"
)

func TestHeader(t *testing.T) {
	t.Run("EncodeDecode", func(t *testing.T) {
		original := &Header{
			Magic:            Magic,
			Version:          FormatVersion,
			Length:           1024,
			CompressedLength: 512,
		}

		buf := make([]byte, HeaderSize)
		original.EncodeTo(buf)

		decoded := &Header{}
		if err := decoded.DecodeFrom(buf); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if *decoded != *original {
			t.Errorf("mismatch: got %+v, want %+v", decoded, original)
		}
	})

	t.Run("InvalidMagic", func(t *testing.T) {
		h := &Header{
			Magic:            [4]byte{0, 0, 0, 0},
			Version:          FormatVersion,
			Length:           1024,
			CompressedLength: 512,
		}
		if err := h.Validate(); err == nil {
			t.Error("expected error for invalid magic")
		}
	})

	t.Run("UnsupportedVersion", func(t *testing.T) {
		h := &Header{
			Magic:            Magic,
			Version:          99,
			Length:           1024,
			CompressedLength: 512,
		}
		if err := h.Validate(); err == nil {
			t.Error("expected error for unsupported version")
		}
	})

	t.Run("ZeroLength", func(t *testing.T) {
		h := &Header{
			Magic:            Magic,
			Version:          FormatVersion,
			Length:           0,
			CompressedLength: 512,
		}
		if err := h.Validate(); err == nil {
			t.Error("expected error for zero length")
		}
	})
}

func TestCompressDecompress(t *testing.T) {
	original := bytes.Repeat([]byte("texture bytes, quite repetitive. "), 64)

	envelope, err := Compress(original)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	if !IsEnvelope(envelope) {
		t.Error("envelope magic missing")
	}
	if len(envelope) >= len(original) {
		t.Errorf("repetitive input did not shrink: %d -> %d", len(original), len(envelope))
	}

	decoded, err := Decompress(envelope)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(decoded, original) {
		t.Error("round trip mismatch")
	}
}

func TestDecompressTruncated(t *testing.T) {
	envelope, err := Compress([]byte("some data to compress"))
	if err != nil {
		t.Fatalf("compress: %v", err)
	}

	if _, err := Decompress(envelope[:HeaderSize+2]); err == nil {
		t.Error("expected error for truncated payload")
	}
	if _, err := Decompress(envelope[:10]); err == nil {
		t.Error("expected error for truncated header")
	}
}
