// Package format describes the persisted byte layout of a slab segment: the
// fixed header, the cell descriptor array and the data pool that follows it.
//
// Every process attached to a segment reads and writes these structures in
// place, so nothing here may hold a process-local pointer. All references are
// byte offsets from the segment start (header fields) or from the pool start
// (descriptor offsets).
//
//	[Header 0x80] [cells_num x Descriptor 0x10] [cells_num x cell_size pool]
package format

// Magic identifies a slab segment. It is the first eight bytes of the header.
var Magic = [8]byte{'S', 'L', 'A', 'B', 'S', 'H', 'M', 0}

const (
	// Version is the layout revision written by this package.
	Version = 1

	// HeaderSize is the fixed size of the segment header in bytes.
	HeaderSize = 0x80

	// DescriptorSize is the size of one cell descriptor in bytes.
	DescriptorSize = 0x10

	// MinCellSize and MaxCellSize bound the size of a single cell (16 B .. 1 MiB).
	MinCellSize = 16
	MaxCellSize = 0x100000

	// MinCellsNum and MaxCellsNum bound the number of cells (1 .. 2^31).
	MinCellsNum = 1
	MaxCellsNum = 0x80000000
)

// Header field offsets (little-endian).
//
//	Offset  Size  Field
//	0x00    8     magic "SLABSHM\0"
//	0x08    4     layout version
//	0x0C    4     lock word (process-shared mutex, 0 = unlocked)
//	0x10    8     descriptor array offset from header start
//	0x18    8     data pool offset from header start
//	0x20    4     cell size
//	0x24    4     cells num
//	0x28    4     flags
//	0x2C    4     creator pid
//	0x30    8     xxHash64 of the immutable fields
//	0x38    40    statistics (5 x u64)
//	0x60    32    reserved
const (
	HeaderMagicOffset      = 0x00
	HeaderVersionOffset    = 0x08
	HeaderLockOffset       = 0x0C
	HeaderCellsDataOffset  = 0x10
	HeaderCellsPoolOffset  = 0x18
	HeaderCellSizeOffset   = 0x20
	HeaderCellsNumOffset   = 0x24
	HeaderFlagsOffset      = 0x28
	HeaderCreatorPIDOffset = 0x2C
	HeaderChecksumOffset   = 0x30
	HeaderStatsOffset      = 0x38
)

// Header flags.
const (
	// FlagForwardCoalesce makes Free also merge the free run that directly
	// follows the released run.
	FlagForwardCoalesce uint32 = 1 << 0

	knownFlags = FlagForwardCoalesce
)

// Descriptor field offsets (little-endian).
//
//	Offset  Size  Field
//	0x00    8     byte offset of the cell's data from the pool start
//	0x08    4     run length (cells from here to the end of the run, inclusive)
//	0x0C    4     flags (bit 0 = free)
const (
	DescOffsetField = 0x00
	DescRunLenField = 0x08
	DescFlagsField  = 0x0C

	DescFlagFree uint32 = 1 << 0
)

// Stat identifies one running counter in the header statistics block.
type Stat int

const (
	StatCellsTaken Stat = iota
	StatAllocCalls
	StatFreeCalls
	StatAllocFails
	StatFreeFails

	// NumStats is the number of counters in the statistics block.
	NumStats
)

// StatsSize is the size of the statistics block in bytes.
const StatsSize = int(NumStats) * 8
