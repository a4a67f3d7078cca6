package bntx

import "errors"

// Error kinds surfaced by the codec. Callers can match them with errors.Is;
// the wrapped message names the section that failed.
var (
	// ErrUnexpectedEOF reports a field or pointer target past the end of
	// the input buffer.
	ErrUnexpectedEOF = errors.New("unexpected end of data")

	// ErrBadMagic reports a section tag that does not match its expected
	// magic value, including an unrecognized byte order marker.
	ErrBadMagic = errors.New("magic mismatch")

	// ErrMalformed reports a structurally invalid section, such as a zero
	// texture count or a descriptor with no mip levels.
	ErrMalformed = errors.New("malformed section")

	// ErrCountMismatch reports a relocation table whose declared section
	// counts disagree with the entries actually present.
	ErrCountMismatch = errors.New("count mismatch")

	// ErrUnsupportedFormat reports a pixel conversion request on a texture
	// whose format this package only carries opaquely.
	ErrUnsupportedFormat = errors.New("unsupported pixel format")

	// ErrLayout reports a container that cannot be serialized into the
	// planned layout, such as a string pool larger than its reserved gap.
	// It is returned before any output bytes are produced.
	ErrLayout = errors.New("layout constraint violated")
)
