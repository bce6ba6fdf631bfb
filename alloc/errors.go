package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/slabshm/segment"
)

var (
	// ErrOutOfMemory indicates that no free run is long enough for the request.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrBusy indicates that the hinted offset does not start a free run of the
	// requested length.
	ErrBusy = errors.New("alloc: hinted offset busy")

	// ErrAlreadyFree indicates a double free. It also matches
	// segment.ErrInvalidParameters.
	ErrAlreadyFree = fmt.Errorf("%w: offset already free", segment.ErrInvalidParameters)
)

// IsRetryable reports whether err is a capacity condition that may clear once
// other allocations are released or a different hint is used. Configuration
// errors are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrOutOfMemory) || errors.Is(err, ErrBusy)
}
