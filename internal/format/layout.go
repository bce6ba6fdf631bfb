package format

import (
	"fmt"
	"math"
)

// Layout is the partition of a segment into header, descriptor array and pool.
// It is a pure function of the cell size and cell count, so every process
// computes the same value; attachers nevertheless locate the zones through the
// offsets recorded in the header.
type Layout struct {
	CellSize        uint32
	CellsNum        uint32
	CellsDataOffset uint64 // descriptor array, from header start
	CellsPoolOffset uint64 // data pool, from header start
	TotalSize       uint64
}

// ValidateGeometry checks cell size and cell count against the supported bounds.
// The cell size must be a power of two.
func ValidateGeometry(cellSize, cellsNum uint32) error {
	if cellSize < MinCellSize || cellSize > MaxCellSize {
		return fmt.Errorf("%w: cell size %d outside [%d, %d]", ErrGeometry, cellSize, MinCellSize, MaxCellSize)
	}
	if !IsPowerOfTwo(cellSize) {
		return fmt.Errorf("%w: cell size %d is not a power of two", ErrGeometry, cellSize)
	}
	if cellsNum < MinCellsNum || uint64(cellsNum) > MaxCellsNum {
		return fmt.Errorf("%w: cells num %d outside [%d, %d]", ErrGeometry, cellsNum, MinCellsNum, uint64(MaxCellsNum))
	}
	return nil
}

// ComputeLayout validates the geometry and returns the segment layout.
func ComputeLayout(cellSize, cellsNum uint32) (Layout, error) {
	if err := ValidateGeometry(cellSize, cellsNum); err != nil {
		return Layout{}, err
	}

	dataOff := uint64(HeaderSize)
	poolOff := dataOff + uint64(cellsNum)*DescriptorSize
	total := poolOff + uint64(cellsNum)*uint64(cellSize)

	// The whole region has to be addressable as a single Go slice.
	if total > math.MaxInt {
		return Layout{}, fmt.Errorf("%w: segment size %d exceeds addressable memory", ErrGeometry, total)
	}

	return Layout{
		CellSize:        cellSize,
		CellsNum:        cellsNum,
		CellsDataOffset: dataOff,
		CellsPoolOffset: poolOff,
		TotalSize:       total,
	}, nil
}

// PoolSize returns the size of the data pool in bytes.
func (l Layout) PoolSize() uint64 {
	return uint64(l.CellsNum) * uint64(l.CellSize)
}

// DescriptorsSize returns the size of the descriptor array in bytes.
func (l Layout) DescriptorsSize() uint64 {
	return uint64(l.CellsNum) * DescriptorSize
}
