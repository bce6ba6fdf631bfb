package format

import (
	"errors"
	"testing"
)

func TestComputeLayout(t *testing.T) {
	l, err := ComputeLayout(16, 4)
	if err != nil {
		t.Fatalf("ComputeLayout: %v", err)
	}
	if l.CellsDataOffset != HeaderSize {
		t.Fatalf("descriptor offset: got %d want %d", l.CellsDataOffset, HeaderSize)
	}
	if l.CellsPoolOffset != HeaderSize+4*DescriptorSize {
		t.Fatalf("pool offset: got %d", l.CellsPoolOffset)
	}
	if l.PoolSize() != 64 {
		t.Fatalf("pool size: got %d want 64", l.PoolSize())
	}
	if l.TotalSize != HeaderSize+4*DescriptorSize+64 {
		t.Fatalf("total size: got %d", l.TotalSize)
	}
}

func TestValidateGeometry(t *testing.T) {
	cases := []struct {
		name     string
		cellSize uint32
		cellsNum uint32
		ok       bool
	}{
		{"minimum", MinCellSize, MinCellsNum, true},
		{"maximum cell", MaxCellSize, 1, true},
		{"maximum cells", 16, MaxCellsNum, true},
		{"cell too small", 8, 1, false},
		{"cell too large", MaxCellSize * 2, 1, false},
		{"not power of two", 48, 1, false},
		{"zero cells", 16, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateGeometry(tc.cellSize, tc.cellsNum)
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrGeometry) {
				t.Fatalf("expected ErrGeometry, got %v", err)
			}
		})
	}
}

func TestCeilDiv(t *testing.T) {
	if got := CeilDiv(20, 16); got != 2 {
		t.Fatalf("CeilDiv(20,16) = %d", got)
	}
	if got := CeilDiv(uint32(32), 16); got != 2 {
		t.Fatalf("CeilDiv(32,16) = %d", got)
	}
	if got := CeilDiv(int64(1), 16); got != 1 {
		t.Fatalf("CeilDiv(1,16) = %d", got)
	}
}
