// Package alloc implements the fixed-cell allocator that runs inside a shared
// segment.
//
// # Overview
//
// The pool of a segment is divided into cells of one fixed size. Every
// allocation reserves a whole number of consecutive cells and is identified by
// its Offset: the byte position of its first cell relative to the start of the
// pool. Offsets are the only references that stay valid across processes; a
// process converts them to memory with Bytes only at the point of use.
//
// # Descriptor array
//
// Free space is tracked without pointers. Each cell has a descriptor holding a
// free flag and a run length: the number of consecutive cells, starting at
// this one, that share its state. For a run spanning [s, e) cell i records
// e - i, so scans advance with
//
//	i += runLen(i)
//
// and visit runs rather than cells.
//
// # Allocation
//
// Alloc picks the first free run long enough for the request (first fit, no
// best-fit search). AllocAt asks for a specific offset and fails with ErrBusy
// unless a free run of sufficient length starts there; the free cells in front
// of it are renumbered so that their run ends at the hint. Reserved memory is
// always zeroed.
//
// # Coalescing
//
// Free merges the released run with the free cells directly in front of it.
// By default it does not look past the end of the released run, so a free run
// that follows stays separately numbered until a hinted allocation renumbers
// it. Segments created with segment.WithForwardCoalesce also absorb that
// following run.
//
// # Concurrency
//
// Every operation holds the segment lock for its whole check-and-mutate span.
// The lock is shared by all attached processes and has no timeout.
package alloc
