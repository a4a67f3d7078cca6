// Package archive wraps a byte buffer in a small zstd-compressed envelope,
// used for storing texture containers as .zst files. The whole payload is
// compressed and decompressed in one shot; the codec never streams.
package archive

import (
	"encoding/binary"
	"fmt"

	"github.com/DataDog/zstd"
)

// Magic bytes identifying a compressed texture envelope.
var Magic = [4]byte{0x5a, 0x54, 0x45, 0x58} // "ZTEX"

// HeaderSize is the fixed binary size of an envelope header.
const HeaderSize = 24 // 4 + 4 + 8 + 8 bytes

// FormatVersion is the current envelope format revision.
const FormatVersion = 1

// DefaultCompressionLevel is used when no level option is given.
const DefaultCompressionLevel = zstd.DefaultCompression

// Header describes the envelope ahead of the zstd frame.
type Header struct {
	Magic            [4]byte
	Version          uint32
	Length           uint64 // Uncompressed size
	CompressedLength uint64 // Compressed size
}

// Validate checks the header for validity.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return fmt.Errorf("invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.Version != FormatVersion {
		return fmt.Errorf("unsupported version: %d", h.Version)
	}
	if h.Length == 0 {
		return fmt.Errorf("uncompressed size is zero")
	}
	if h.CompressedLength == 0 {
		return fmt.Errorf("compressed size is zero")
	}
	return nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0:4], h.Magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint64(buf[8:16], h.Length)
	binary.LittleEndian.PutUint64(buf[16:24], h.CompressedLength)
}

// DecodeFrom reads and validates the header from the given buffer.
func (h *Header) DecodeFrom(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(data))
	}
	copy(h.Magic[:], data[0:4])
	h.Version = binary.LittleEndian.Uint32(data[4:8])
	h.Length = binary.LittleEndian.Uint64(data[8:16])
	h.CompressedLength = binary.LittleEndian.Uint64(data[16:24])
	return h.Validate()
}

// Option configures compression.
type Option func(*config)

type config struct {
	level int
}

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) Option {
	return func(c *config) {
		c.level = level
	}
}

// Compress wraps data in an envelope: header followed by one zstd frame.
func Compress(data []byte, opts ...Option) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("nothing to compress")
	}

	cfg := config{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(&cfg)
	}

	payload, err := zstd.CompressLevel(nil, data, cfg.level)
	if err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}

	h := Header{
		Magic:            Magic,
		Version:          FormatVersion,
		Length:           uint64(len(data)),
		CompressedLength: uint64(len(payload)),
	}

	out := make([]byte, HeaderSize+len(payload))
	h.EncodeTo(out)
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Decompress unwraps an envelope and returns the original bytes.
func Decompress(data []byte) ([]byte, error) {
	h := Header{}
	if err := h.DecodeFrom(data); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	if uint64(len(data)-HeaderSize) < h.CompressedLength {
		return nil, fmt.Errorf("truncated payload: header declares %d bytes, have %d", h.CompressedLength, len(data)-HeaderSize)
	}
	payload := data[HeaderSize : HeaderSize+int(h.CompressedLength)]

	out, err := zstd.Decompress(make([]byte, 0, h.Length), payload)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	if uint64(len(out)) != h.Length {
		return nil, fmt.Errorf("incomplete payload: expected %d bytes, got %d", h.Length, len(out))
	}
	return out, nil
}

// IsEnvelope reports whether data starts with the envelope magic.
func IsEnvelope(data []byte) bool {
	return len(data) >= 4 && [4]byte(data[0:4]) == Magic
}
