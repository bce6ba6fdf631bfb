package format

import "errors"

var (
	// ErrSignatureMismatch indicates the header does not start with Magic.
	ErrSignatureMismatch = errors.New("format: signature mismatch")
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrUnsupportedVersion indicates a header written by an unknown layout revision.
	ErrUnsupportedVersion = errors.New("format: unsupported layout version")
	// ErrChecksum indicates the immutable header fields do not match their checksum.
	ErrChecksum = errors.New("format: header checksum mismatch")
	// ErrGeometry indicates a cell size or cell count outside the supported bounds.
	ErrGeometry = errors.New("format: invalid segment geometry")
	// ErrCorruptRun indicates a descriptor that breaks the run-length invariant.
	ErrCorruptRun = errors.New("format: corrupt descriptor run")
)
