package segment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/joshuapare/slabshm/internal/format"
	"github.com/joshuapare/slabshm/segment/store"
)

// Segment is one process's attachment to a shared region.
type Segment struct {
	st store.Store
	m  store.Mapping

	layout format.Layout
	flags  uint32

	hdr   format.Header
	cells format.Cells
	pool  []byte

	log *slog.Logger
}

// Create initializes a new region in st sized for cellsNum cells of cellSize
// bytes each, and returns the creator's attachment. The region must not exist.
// On any failure after the region was created it is removed again.
func Create(st store.Store, cellSize, cellsNum uint32, opts ...Option) (*Segment, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidParameters)
	}
	layout, err := format.ComputeLayout(cellSize, cellsNum)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	cfg := newConfig(opts)

	m, err := st.Create(int(layout.TotalSize))
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", st, err)
	}

	data := m.Bytes()
	clear(data)

	hdr, _ := format.ParseHeader(data)
	hdr.Init(layout, cfg.flags, uint32(os.Getpid()))

	s := &Segment{st: st, log: cfg.log}
	if err := s.bind(m); err != nil {
		rollback(m)
		return nil, fmt.Errorf("create %s: %w", st, err)
	}
	s.cells.Init(cellSize)

	s.log.Info("segment created",
		"store", st.String(),
		"cell_size", cellSize,
		"cells_num", cellsNum,
		"size", layout.TotalSize,
		"forward_coalesce", s.ForwardCoalesce())
	return s, nil
}

// Attach maps an existing region in st. The region's header must carry the
// same cell size and cell count, and the region must be exactly the size that
// geometry implies; otherwise ErrIncompatibleSegment is returned and nothing
// stays mapped.
func Attach(st store.Store, cellSize, cellsNum uint32, opts ...Option) (*Segment, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: nil store", ErrInvalidParameters)
	}
	layout, err := format.ComputeLayout(cellSize, cellsNum)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameters, err)
	}
	cfg := newConfig(opts)

	m, err := st.Open(int(layout.TotalSize))
	if err != nil {
		if errors.Is(err, store.ErrSizeMismatch) {
			return nil, fmt.Errorf("%w: %w", ErrIncompatibleSegment, err)
		}
		return nil, fmt.Errorf("attach %s: %w", st, err)
	}

	hdr, err := format.ParseHeader(m.Bytes())
	if err == nil {
		err = hdr.Validate()
	}
	if err == nil && (hdr.CellSize() != cellSize || hdr.CellsNum() != cellsNum) {
		err = fmt.Errorf("header geometry %dx%d, requested %dx%d",
			hdr.CellsNum(), hdr.CellSize(), cellsNum, cellSize)
	}
	if err != nil {
		_ = m.Release()
		return nil, fmt.Errorf("%w: %w", ErrIncompatibleSegment, err)
	}

	s := &Segment{st: st, log: cfg.log}
	if err := s.bind(m); err != nil {
		_ = m.Release()
		return nil, fmt.Errorf("%w: %w", ErrIncompatibleSegment, err)
	}

	s.log.Debug("segment attached",
		"store", st.String(),
		"cell_size", cellSize,
		"cells_num", cellsNum,
		"creator_pid", hdr.CreatorPID())
	return s, nil
}

// Geometry reads the cell size and cell count recorded in an existing region
// without keeping it mapped.
func Geometry(st store.Store) (cellSize, cellsNum uint32, err error) {
	if st == nil {
		return 0, 0, fmt.Errorf("%w: nil store", ErrInvalidParameters)
	}
	size, err := st.Size()
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", st, err)
	}
	if size < format.HeaderSize {
		return 0, 0, fmt.Errorf("%w: region of %d bytes has no header", ErrIncompatibleSegment, size)
	}
	m, err := st.Open(size)
	if err != nil {
		return 0, 0, fmt.Errorf("probe %s: %w", st, err)
	}
	defer m.Release()

	hdr, _ := format.ParseHeader(m.Bytes())
	if err := hdr.Validate(); err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrIncompatibleSegment, err)
	}
	return hdr.CellSize(), hdr.CellsNum(), nil
}

// bind derives the header, descriptor and pool views from the offsets stored
// in the header of m.
func (s *Segment) bind(m store.Mapping) error {
	data := m.Bytes()
	hdr, err := format.ParseHeader(data)
	if err != nil {
		return err
	}
	layout := hdr.Layout()
	size := uint64(len(data))

	dataEnd := layout.CellsDataOffset + layout.DescriptorsSize()
	poolEnd := layout.CellsPoolOffset + layout.PoolSize()
	switch {
	case layout.CellsDataOffset < format.HeaderSize:
		return fmt.Errorf("descriptor array at %#x overlaps header", layout.CellsDataOffset)
	case dataEnd > layout.CellsPoolOffset:
		return fmt.Errorf("descriptor array [%#x,%#x) overlaps pool at %#x",
			layout.CellsDataOffset, dataEnd, layout.CellsPoolOffset)
	case poolEnd > size:
		return fmt.Errorf("pool ends at %#x beyond region size %#x: %w", poolEnd, size, format.ErrTruncated)
	}

	s.m = m
	s.layout = layout
	s.flags = hdr.Flags()
	s.hdr = hdr
	s.cells = format.Cells(data[layout.CellsDataOffset:dataEnd:dataEnd])
	s.pool = data[layout.CellsPoolOffset:poolEnd:poolEnd]
	return nil
}

func rollback(m store.Mapping) {
	_ = m.Remove()
	_ = m.Release()
}

// Detach unmaps the region from this process. The region itself and the
// handles held by other processes are unaffected. Pending writes of a
// file-backed region are scheduled for write-back without waiting.
func (s *Segment) Detach() error {
	if s.m == nil {
		return ErrNotAttached
	}
	var errs []error
	if err := s.m.Sync(true); err != nil && !errors.Is(err, store.ErrReleased) {
		errs = append(errs, err)
	}
	if err := s.m.Release(); err != nil {
		errs = append(errs, err)
	}
	s.log.Debug("segment detached", "store", s.st.String())

	s.m = nil
	s.hdr = nil
	s.cells = nil
	s.pool = nil
	return errors.Join(errs...)
}

// Destroy marks the region for removal and detaches. Processes that are still
// attached keep a valid mapping until they detach; new Attach calls fail with
// ErrNotFound.
func (s *Segment) Destroy() error {
	if s.m == nil {
		return ErrNotAttached
	}
	name := s.st.String()
	removeErr := s.m.Remove()
	detachErr := s.Detach()
	if err := errors.Join(removeErr, detachErr); err != nil {
		return fmt.Errorf("destroy %s: %w", name, err)
	}
	s.log.Info("segment destroyed", "store", name)
	return nil
}

// Sync flushes a file-backed region to stable storage and waits for the write
// to complete. It is a no-op for stores without a backing file.
func (s *Segment) Sync(ctx context.Context) error {
	if s.m == nil {
		return ErrNotAttached
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.m.Sync(false)
}

// Lock acquires the segment-wide lock shared by every attached process. It
// blocks without a timeout. A process that dies while holding the lock leaves
// it held.
func (s *Segment) Lock() error {
	if s.m == nil {
		return ErrNotAttached
	}
	lockWord(s.hdr.LockWord())
	return nil
}

// Unlock releases the lock acquired by Lock.
func (s *Segment) Unlock() {
	if s.m == nil {
		return
	}
	unlockWord(s.hdr.LockWord())
}

// Attached reports whether the segment is still mapped.
func (s *Segment) Attached() bool { return s.m != nil }

func (s *Segment) Store() store.Store    { return s.st }
func (s *Segment) CellSize() uint32      { return s.layout.CellSize }
func (s *Segment) CellsNum() uint32      { return s.layout.CellsNum }
func (s *Segment) PoolSize() uint64      { return s.layout.PoolSize() }
func (s *Segment) Size() uint64          { return s.layout.TotalSize }
func (s *Segment) Layout() format.Layout { return s.layout }
func (s *Segment) Flags() uint32         { return s.flags }
func (s *Segment) Logger() *slog.Logger  { return s.log }

// ForwardCoalesce reports whether frees merge with the following free run.
func (s *Segment) ForwardCoalesce() bool {
	return s.flags&format.FlagForwardCoalesce != 0
}

// Header returns the header view. Mutations must happen under Lock.
func (s *Segment) Header() format.Header { return s.hdr }

// Cells returns the descriptor array view. Mutations must happen under Lock.
func (s *Segment) Cells() format.Cells { return s.cells }

// Pool returns the data pool. Offsets returned by the allocator index into it.
func (s *Segment) Pool() []byte { return s.pool }
