package alloc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabshm/segment"
	"github.com/joshuapare/slabshm/segment/store"
)

// desc is the mutable part of one descriptor.
type desc struct {
	Free   bool
	RunLen uint32
}

func newTestAllocator(t *testing.T, cellSize, cellsNum uint32, opts ...segment.Option) *Allocator {
	t.Helper()
	st := store.NewFile(filepath.Join(t.TempDir(), "seg"))
	seg, err := segment.Create(st, cellSize, cellsNum, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if seg.Attached() {
			_ = seg.Destroy()
		}
	})
	a, err := New(seg)
	require.NoError(t, err)
	return a
}

func descriptors(a *Allocator) []desc {
	c := a.seg.Cells()
	out := make([]desc, c.Len())
	for i := range out {
		out[i] = desc{Free: c.Free(uint32(i)), RunLen: c.RunLen(uint32(i))}
	}
	return out
}

func freeFlags(ds []desc) []bool {
	out := make([]bool, len(ds))
	for i, d := range ds {
		out[i] = d.Free
	}
	return out
}

// postCreate is the descriptor state of a fresh segment with n cells.
func postCreate(n uint32) []desc {
	out := make([]desc, n)
	for i := range out {
		out[i] = desc{Free: true, RunLen: n - uint32(i)}
	}
	return out
}

func mustAlloc(t *testing.T, a *Allocator, size int, hint Offset) Offset {
	t.Helper()
	off, err := a.AllocAt(size, hint)
	require.NoError(t, err)
	return off
}
