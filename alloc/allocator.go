package alloc

import (
	"fmt"
	"log/slog"

	"github.com/joshuapare/slabshm/internal/format"
	"github.com/joshuapare/slabshm/segment"
)

// Offset is a byte position relative to the start of the data pool.
type Offset int64

// NoHint lets Alloc choose the position.
const NoHint Offset = -1

// Allocator runs allocation operations against one attached segment.
type Allocator struct {
	seg *segment.Segment
	log *slog.Logger
}

// New returns an allocator for seg.
func New(seg *segment.Segment) (*Allocator, error) {
	if seg == nil {
		return nil, fmt.Errorf("%w: nil segment", segment.ErrInvalidParameters)
	}
	if !seg.Attached() {
		return nil, segment.ErrNotAttached
	}
	return &Allocator{seg: seg, log: seg.Logger()}, nil
}

// Segment returns the segment the allocator operates on.
func (a *Allocator) Segment() *segment.Segment { return a.seg }

// Alloc reserves enough cells for size bytes at the first free run that fits.
func (a *Allocator) Alloc(size int) (Offset, error) {
	return a.AllocAt(size, NoHint)
}

// AllocAt reserves enough cells for size bytes. With hint set to NoHint it
// behaves like Alloc; otherwise the allocation must start exactly at hint.
func (a *Allocator) AllocAt(size int, hint Offset) (Offset, error) {
	if err := a.seg.Lock(); err != nil {
		return NoHint, err
	}
	defer a.seg.Unlock()
	return a.allocLocked(size, hint)
}

func (a *Allocator) allocLocked(size int, hint Offset) (Offset, error) {
	hdr := a.seg.Header()
	hdr.AddStat(format.StatAllocCalls, 1)
	off, cells, err := a.reserve(size, hint)
	if err != nil {
		hdr.AddStat(format.StatAllocFails, 1)
		a.log.Warn("alloc failed", "size", size, "hint", int64(hint), "err", err)
		return NoHint, err
	}
	hdr.AddStat(format.StatCellsTaken, int64(cells))
	a.log.Debug("alloc", "size", size, "hint", int64(hint), "offset", int64(off), "cells", cells)
	return off, nil
}

// reserve performs the allocation proper. The caller holds the lock.
func (a *Allocator) reserve(size int, hint Offset) (Offset, uint32, error) {
	cellSize := a.seg.CellSize()
	poolSize := a.seg.PoolSize()
	if size <= 0 || uint64(size) > poolSize {
		return NoHint, 0, fmt.Errorf("%w: size %d outside (0, %d]", segment.ErrInvalidParameters, size, poolSize)
	}

	cells := a.seg.Cells()
	n := cells.Len()
	need := format.CeilDiv(uint64(size), uint64(cellSize))
	if need > uint64(n) {
		return NoHint, 0, fmt.Errorf("%w: %d cells requested, segment has %d", ErrOutOfMemory, need, n)
	}
	want := uint32(need)

	var start uint32
	if hint == NoHint {
		i, err := firstFit(cells, want)
		if err != nil {
			return NoHint, 0, err
		}
		start = i
	} else {
		idx, err := a.index(hint)
		if err != nil {
			return NoHint, 0, err
		}
		if !cells.Free(idx) || cells.RunLen(idx) < want {
			return NoHint, 0, fmt.Errorf("%w: %d cells at offset %d", ErrBusy, want, hint)
		}
		// The free cells in front of idx now form a run ending at idx.
		for i, l := idx, uint32(1); i > 0 && cells.Free(i-1); i, l = i-1, l+1 {
			cells.Set(i-1, true, l)
		}
		start = idx
	}

	off := cells.Offset(start)
	if off != uint64(start)*uint64(cellSize) {
		return NoHint, 0, fmt.Errorf("%w: cell %d records offset %d", segment.ErrCorrupted, start, off)
	}
	cells.MarkRun(start, start+want, false)
	clear(a.seg.Pool()[off : off+uint64(want)*uint64(cellSize)])
	return Offset(off), want, nil
}

// firstFit returns the first free run of at least want cells.
func firstFit(cells format.Cells, want uint32) (uint32, error) {
	n := cells.Len()
	for i := uint32(0); i < n; {
		l, err := cells.Span(i)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
		}
		if cells.Free(i) && l >= want {
			return i, nil
		}
		i += l
	}
	return 0, fmt.Errorf("%w: no free run of %d cells", ErrOutOfMemory, want)
}

// index converts a pool offset to a cell index.
func (a *Allocator) index(off Offset) (uint32, error) {
	cellSize := uint64(a.seg.CellSize())
	if off < 0 || uint64(off) >= a.seg.PoolSize() {
		return 0, fmt.Errorf("%w: offset %d outside pool of %d bytes", segment.ErrInvalidParameters, off, a.seg.PoolSize())
	}
	if uint64(off)%cellSize != 0 {
		return 0, fmt.Errorf("%w: offset %d not aligned to cell size %d", segment.ErrInvalidParameters, off, cellSize)
	}
	return uint32(uint64(off) / cellSize), nil
}

// Free releases the allocation that starts at off.
func (a *Allocator) Free(off Offset) error {
	if err := a.seg.Lock(); err != nil {
		return err
	}
	defer a.seg.Unlock()

	hdr := a.seg.Header()
	hdr.AddStat(format.StatFreeCalls, 1)
	released, err := a.release(off)
	if err != nil {
		hdr.AddStat(format.StatFreeFails, 1)
		a.log.Warn("free failed", "offset", int64(off), "err", err)
		return err
	}
	hdr.AddStat(format.StatCellsTaken, -int64(released))
	a.log.Debug("free", "offset", int64(off), "cells", released)
	return nil
}

// release marks the run at off free and merges it with its free neighbours.
// It returns the number of cells the run held.
func (a *Allocator) release(off Offset) (uint32, error) {
	idx, err := a.index(off)
	if err != nil {
		return 0, err
	}
	cells := a.seg.Cells()
	n := cells.Len()

	if cells.Free(idx) {
		return 0, fmt.Errorf("%w: %d", ErrAlreadyFree, off)
	}
	runLen, err := cells.Span(idx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
	}
	if !runStart(cells, idx) {
		return 0, fmt.Errorf("%w: offset %d is inside an allocation", segment.ErrInvalidParameters, off)
	}

	first := idx
	for first > 0 && cells.Free(first-1) {
		first--
	}
	end := idx + runLen
	if a.seg.ForwardCoalesce() && end < n && cells.Free(end) {
		next, err := cells.Span(end)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
		}
		end += next
	}
	cells.MarkRun(first, end, true)
	return runLen, nil
}

// runStart reports whether used cell idx begins its run. A used cell directly
// preceded by a used cell whose run length is one greater continues that run.
func runStart(cells format.Cells, idx uint32) bool {
	if idx == 0 || cells.Free(idx-1) {
		return true
	}
	return cells.RunLen(idx-1) != cells.RunLen(idx)+1
}

// Clear frees every cell. Pool contents are left as they are.
func (a *Allocator) Clear() error {
	if err := a.seg.Lock(); err != nil {
		return err
	}
	defer a.seg.Unlock()

	a.seg.Cells().Reset()
	a.seg.Header().SetStat(format.StatCellsTaken, 0)
	a.log.Debug("clear", "cells", a.seg.CellsNum())
	return nil
}
