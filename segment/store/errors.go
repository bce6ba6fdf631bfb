package store

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrNotFound indicates the region named by the identifier does not exist.
	ErrNotFound = errors.New("store: region not found")

	// ErrPermission indicates the caller may not create or open the region.
	ErrPermission = errors.New("store: permission denied")

	// ErrExists indicates an exclusive create collided with an existing region.
	ErrExists = errors.New("store: region already exists")

	// ErrIO covers every other acquisition, mapping or removal failure.
	ErrIO = errors.New("store: i/o failure")

	// ErrSizeMismatch indicates the existing region's size differs from the
	// size requested by the caller.
	ErrSizeMismatch = errors.New("store: region size mismatch")

	// ErrUnsupported indicates the store kind is not available on this platform.
	ErrUnsupported = errors.New("store: unsupported on this platform")

	// ErrInvalidSpec indicates a malformed store identifier.
	ErrInvalidSpec = errors.New("store: invalid spec")

	// ErrReleased indicates an operation on a mapping that was already released.
	ErrReleased = errors.New("store: mapping released")
)

// classify wraps a system error with the store sentinel it corresponds to.
func classify(op, id string, err error) error {
	var kind error
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		kind = ErrPermission
	case errors.Is(err, fs.ErrExist):
		kind = ErrExists
	default:
		kind = ErrIO
	}
	return fmt.Errorf("%w: %s %s: %w", kind, op, id, err)
}
