package format

import (
	"fmt"
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Header is a view over the first HeaderSize bytes of a mapped segment.
// Reads and writes go straight to shared memory.
type Header []byte

// ParseHeader returns a Header view over b. It does not validate contents.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return nil, fmt.Errorf("header: %w", ErrTruncated)
	}
	return Header(b[:HeaderSize:HeaderSize]), nil
}

func (h Header) Magic() [8]byte {
	var m [8]byte
	copy(m[:], h[HeaderMagicOffset:HeaderMagicOffset+8])
	return m
}

func (h Header) Version() uint32         { return ReadU32(h, HeaderVersionOffset) }
func (h Header) CellsDataOffset() uint64 { return ReadU64(h, HeaderCellsDataOffset) }
func (h Header) CellsPoolOffset() uint64 { return ReadU64(h, HeaderCellsPoolOffset) }
func (h Header) CellSize() uint32        { return ReadU32(h, HeaderCellSizeOffset) }
func (h Header) CellsNum() uint32        { return ReadU32(h, HeaderCellsNumOffset) }
func (h Header) Flags() uint32           { return ReadU32(h, HeaderFlagsOffset) }
func (h Header) CreatorPID() uint32      { return ReadU32(h, HeaderCreatorPIDOffset) }
func (h Header) Checksum() uint64        { return ReadU64(h, HeaderChecksumOffset) }

// LockWord returns the address of the process-shared lock word. The mapping
// base is page aligned, so the word is naturally aligned for atomic access.
func (h Header) LockWord() *uint32 {
	return (*uint32)(unsafe.Pointer(&h[HeaderLockOffset]))
}

// Stat returns the current value of a statistics counter.
func (h Header) Stat(s Stat) uint64 {
	return ReadU64(h, HeaderStatsOffset+int(s)*8)
}

// SetStat overwrites a statistics counter.
func (h Header) SetStat(s Stat, v uint64) {
	PutU64(h, HeaderStatsOffset+int(s)*8, v)
}

// AddStat adds delta to a statistics counter. Counters are advisory and wrap
// instead of failing.
func (h Header) AddStat(s Stat, delta int64) {
	h.SetStat(s, h.Stat(s)+uint64(delta))
}

// Init writes a fresh header for the given layout. The lock word is left at
// zero (unlocked) and the statistics block is cleared.
func (h Header) Init(l Layout, flags, pid uint32) {
	copy(h[HeaderMagicOffset:], Magic[:])
	PutU32(h, HeaderVersionOffset, Version)
	PutU32(h, HeaderLockOffset, 0)
	PutU64(h, HeaderCellsDataOffset, l.CellsDataOffset)
	PutU64(h, HeaderCellsPoolOffset, l.CellsPoolOffset)
	PutU32(h, HeaderCellSizeOffset, l.CellSize)
	PutU32(h, HeaderCellsNumOffset, l.CellsNum)
	PutU32(h, HeaderFlagsOffset, flags&knownFlags)
	PutU32(h, HeaderCreatorPIDOffset, pid)
	clear(h[HeaderStatsOffset : HeaderStatsOffset+StatsSize])
	PutU64(h, HeaderChecksumOffset, h.ComputeChecksum())
}

// ComputeChecksum hashes the fields that never change after creation. The lock
// word and the statistics are excluded because they mutate at runtime.
func (h Header) ComputeChecksum() uint64 {
	d := xxhash.New()
	_, _ = d.Write(h[HeaderMagicOffset:HeaderLockOffset])
	_, _ = d.Write(h[HeaderCellsDataOffset:HeaderChecksumOffset])
	return d.Sum64()
}

// Validate checks magic, version and checksum.
func (h Header) Validate() error {
	if h.Magic() != Magic {
		return fmt.Errorf("header: %w", ErrSignatureMismatch)
	}
	if v := h.Version(); v != Version {
		return fmt.Errorf("header: %w (got %d, want %d)", ErrUnsupportedVersion, v, Version)
	}
	if h.Checksum() != h.ComputeChecksum() {
		return fmt.Errorf("header: %w", ErrChecksum)
	}
	return nil
}

// Layout reconstructs the layout recorded in the header.
func (h Header) Layout() Layout {
	cellSize, cellsNum := h.CellSize(), h.CellsNum()
	return Layout{
		CellSize:        cellSize,
		CellsNum:        cellsNum,
		CellsDataOffset: h.CellsDataOffset(),
		CellsPoolOffset: h.CellsPoolOffset(),
		TotalSize:       h.CellsPoolOffset() + uint64(cellsNum)*uint64(cellSize),
	}
}
