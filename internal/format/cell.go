package format

import "fmt"

// Cells is a view over the cell descriptor array.
//
// Each descriptor carries a run length: the number of consecutive cells,
// starting at and including this one, that share its free/used state. For a
// run spanning [s, e) every index i in the run holds e - i, so a scan can skip
// a whole run with i += RunLen(i).
type Cells []byte

// Len returns the number of descriptors in the view.
func (c Cells) Len() uint32 {
	return uint32(len(c) / DescriptorSize)
}

// Offset returns the static pool offset recorded for cell i.
func (c Cells) Offset(i uint32) uint64 {
	return ReadU64(c, int(i)*DescriptorSize+DescOffsetField)
}

// RunLen returns the run length recorded for cell i.
func (c Cells) RunLen(i uint32) uint32 {
	return ReadU32(c, int(i)*DescriptorSize+DescRunLenField)
}

// Free reports whether cell i belongs to a free run.
func (c Cells) Free(i uint32) bool {
	return ReadU32(c, int(i)*DescriptorSize+DescFlagsField)&DescFlagFree != 0
}

// Set writes the free flag and run length of cell i. The static offset is left
// untouched.
func (c Cells) Set(i uint32, free bool, runLen uint32) {
	base := int(i) * DescriptorSize
	var flags uint32
	if free {
		flags = DescFlagFree
	}
	PutU32(c, base+DescRunLenField, runLen)
	PutU32(c, base+DescFlagsField, flags)
}

// MarkRun marks cells [start, end) as one run with descending run lengths.
func (c Cells) MarkRun(start, end uint32, free bool) {
	for i := start; i < end; i++ {
		c.Set(i, free, end-i)
	}
}

// Init assigns every cell its static pool offset and makes the whole array a
// single free run.
func (c Cells) Init(cellSize uint32) {
	n := c.Len()
	for i := uint32(0); i < n; i++ {
		PutU64(c, int(i)*DescriptorSize+DescOffsetField, uint64(i)*uint64(cellSize))
	}
	c.MarkRun(0, n, true)
}

// Reset makes the whole array a single free run without touching offsets.
func (c Cells) Reset() {
	c.MarkRun(0, c.Len(), true)
}

// Verify checks every descriptor against the run-length invariant: static
// offsets equal index*cellSize, run lengths are non-zero, stay in bounds and
// count down to one, and the free flag is uniform within each run.
func (c Cells) Verify(cellSize uint32) error {
	n := c.Len()
	for i := uint32(0); i < n; i++ {
		if got, want := c.Offset(i), uint64(i)*uint64(cellSize); got != want {
			return fmt.Errorf("%w: cell %d offset %d, want %d", ErrCorruptRun, i, got, want)
		}
	}
	for s := uint32(0); s < n; {
		l, err := c.Span(s)
		if err != nil {
			return err
		}
		free := c.Free(s)
		for k := uint32(1); k < l; k++ {
			i := s + k
			if c.Free(i) != free {
				return fmt.Errorf("%w: cell %d changes state inside run at %d", ErrCorruptRun, i, s)
			}
			if got := c.RunLen(i); got != l-k {
				return fmt.Errorf("%w: cell %d run length %d, want %d", ErrCorruptRun, i, got, l-k)
			}
		}
		s += l
	}
	return nil
}

// Span returns the run length of cell i after checking that the run is
// non-empty and ends inside the array.
func (c Cells) Span(i uint32) (uint32, error) {
	l := c.RunLen(i)
	if l == 0 || uint64(i)+uint64(l) > uint64(c.Len()) {
		return 0, fmt.Errorf("%w: cell %d has run length %d", ErrCorruptRun, i, l)
	}
	return l, nil
}
