package snapshot

import "errors"

var (
	// ErrBadFrame indicates a stream that does not start with a snapshot frame
	// this package understands.
	ErrBadFrame = errors.New("snapshot: bad frame")

	// ErrChecksum indicates the decoded image does not match its recorded hash.
	ErrChecksum = errors.New("snapshot: checksum mismatch")

	// ErrUnknownCodec indicates an unsupported codec id or name.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
)
