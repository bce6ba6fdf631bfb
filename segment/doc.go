// Package segment manages the lifecycle of a shared memory segment laid out
// for fixed-cell allocation.
//
// A segment is a contiguous region with three zones:
//
//	[header 0x80][cells_num x 16-byte descriptors][cells_num x cell_size pool]
//
// The header records the geometry, the offsets of the other two zones, a
// process-shared lock word and a block of advisory counters. Attachers locate
// the descriptor array and the pool through the offsets stored in the header,
// never through their own mapping addresses, so every process may map the
// region at a different base.
//
// Create initializes a new region, Attach maps an existing one after checking
// that its geometry matches, Detach unmaps it and Destroy additionally marks
// it for removal. The allocation engine itself lives in package alloc.
//
// A *Segment may be used from many goroutines for lock-protected operations.
// Detach and Destroy must not race with them.
package segment
