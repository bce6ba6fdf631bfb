package alloc

import (
	"fmt"

	"github.com/joshuapare/slabshm/segment"
)

// Run is one run of cells as seen by a forward scan.
type Run struct {
	Offset Offset `json:"offset"`
	Start  uint32 `json:"start"`
	Len    uint32 `json:"len"`
	Free   bool   `json:"free"`
}

// Runs walks the descriptor array run by run.
func (a *Allocator) Runs() ([]Run, error) {
	if err := a.seg.Lock(); err != nil {
		return nil, err
	}
	defer a.seg.Unlock()

	cells := a.seg.Cells()
	n := cells.Len()
	var runs []Run
	for i := uint32(0); i < n; {
		l, err := cells.Span(i)
		if err != nil {
			return runs, fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
		}
		runs = append(runs, Run{
			Offset: Offset(cells.Offset(i)),
			Start:  i,
			Len:    l,
			Free:   cells.Free(i),
		})
		i += l
	}
	return runs, nil
}

// Verify checks every descriptor: static offsets, run lengths that stay in
// bounds and count down to one, and a uniform free flag within each run.
func (a *Allocator) Verify() error {
	if err := a.seg.Lock(); err != nil {
		return err
	}
	defer a.seg.Unlock()

	if err := a.seg.Cells().Verify(a.seg.CellSize()); err != nil {
		return fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
	}
	return nil
}
