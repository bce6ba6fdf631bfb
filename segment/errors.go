package segment

import (
	"errors"

	"github.com/joshuapare/slabshm/segment/store"
)

var (
	// ErrInvalidParameters reports a bad argument: zero, out of range or
	// non-power-of-two geometry, a misaligned offset, or a nil store.
	ErrInvalidParameters = errors.New("segment: invalid parameters")

	// ErrIncompatibleSegment reports a region whose header or size disagrees
	// with the geometry the caller asked for.
	ErrIncompatibleSegment = errors.New("segment: incompatible segment")

	// ErrNotAttached reports use of a segment after Detach or Destroy.
	ErrNotAttached = errors.New("segment: not attached")

	// ErrCorrupted reports a descriptor array that violates the run-length
	// invariant.
	ErrCorrupted = errors.New("segment: descriptor array corrupted")
)

// Store failures, re-exported so callers only need this package.
var (
	ErrNotFound         = store.ErrNotFound
	ErrPermissionDenied = store.ErrPermission
	ErrExists           = store.ErrExists
	ErrIO               = store.ErrIO
)
