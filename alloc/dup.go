package alloc

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"

	"github.com/joshuapare/slabshm/segment"
)

// Dup allocates len(data) bytes and copies data into them. The copy happens
// under the same lock acquisition as the allocation.
func (a *Allocator) Dup(data []byte) (Offset, error) {
	if len(data) == 0 {
		return NoHint, fmt.Errorf("%w: empty source", segment.ErrInvalidParameters)
	}
	return a.dup(data)
}

// DupString stores s followed by a NUL terminator, the form C readers of the
// segment expect.
func (a *Allocator) DupString(s string) (Offset, error) {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return a.dup(buf)
}

// DupEncoded stores s transcoded to enc and terminated by an encoded NUL, for
// consumers that read text in a legacy code page or UTF-16.
func (a *Allocator) DupEncoded(s string, enc encoding.Encoding) (Offset, error) {
	if enc == nil {
		return NoHint, fmt.Errorf("%w: nil encoding", segment.ErrInvalidParameters)
	}
	buf, err := enc.NewEncoder().Bytes([]byte(s + "\x00"))
	if err != nil {
		return NoHint, fmt.Errorf("%w: encode: %w", segment.ErrInvalidParameters, err)
	}
	return a.dup(buf)
}

func (a *Allocator) dup(data []byte) (Offset, error) {
	if err := a.seg.Lock(); err != nil {
		return NoHint, err
	}
	defer a.seg.Unlock()

	off, err := a.allocLocked(len(data), NoHint)
	if err != nil {
		return NoHint, err
	}
	copy(a.seg.Pool()[off:], data)
	return off, nil
}

// Bytes returns the memory of the allocation starting at off: every cell it
// reserved, so the slice may be longer than the size originally requested.
// The slice aliases shared memory. Bytes takes the segment lock itself, so it
// must not be called while holding it; use Copy for a consistent snapshot.
func (a *Allocator) Bytes(off Offset) ([]byte, error) {
	if err := a.seg.Lock(); err != nil {
		return nil, err
	}
	defer a.seg.Unlock()
	return a.extent(off)
}

// Copy returns a private copy of the allocation at off taken under the lock.
func (a *Allocator) Copy(off Offset) ([]byte, error) {
	if err := a.seg.Lock(); err != nil {
		return nil, err
	}
	defer a.seg.Unlock()

	b, err := a.extent(off)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(b), nil
}

// extent resolves off to the memory of its allocation. The caller holds the
// lock.
func (a *Allocator) extent(off Offset) ([]byte, error) {
	idx, err := a.index(off)
	if err != nil {
		return nil, err
	}
	cells := a.seg.Cells()
	if cells.Free(idx) {
		return nil, fmt.Errorf("%w: offset %d is not allocated", segment.ErrInvalidParameters, off)
	}
	if !runStart(cells, idx) {
		return nil, fmt.Errorf("%w: offset %d is inside an allocation", segment.ErrInvalidParameters, off)
	}
	runLen, err := cells.Span(idx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
	}
	end := uint64(off) + uint64(runLen)*uint64(a.seg.CellSize())
	return a.seg.Pool()[off:end:end], nil
}

// String reads the NUL-terminated string stored at off. Without a terminator
// the whole allocation is returned.
func (a *Allocator) String(off Offset) (string, error) {
	if err := a.seg.Lock(); err != nil {
		return "", err
	}
	defer a.seg.Unlock()

	b, err := a.extent(off)
	if err != nil {
		return "", err
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b), nil
}

// StringEncoded reads a string stored by DupEncoded with the same encoding.
func (a *Allocator) StringEncoded(off Offset, enc encoding.Encoding) (string, error) {
	if enc == nil {
		return "", fmt.Errorf("%w: nil encoding", segment.ErrInvalidParameters)
	}
	b, err := a.Copy(off)
	if err != nil {
		return "", err
	}

	// Allocations are zero filled, so the padding after the terminator decodes
	// to NULs as well.
	s, err := enc.NewDecoder().String(string(b))
	if err != nil {
		return "", fmt.Errorf("decode offset %d: %w", off, err)
	}
	if i := bytes.IndexByte([]byte(s), 0); i >= 0 {
		s = s[:i]
	}
	return s, nil
}
