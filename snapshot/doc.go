// Package snapshot writes and restores point-in-time images of a segment.
//
// An image holds the advisory counters, the descriptor array and the data
// pool. It is taken under the segment lock, so it reflects a state in which
// the run-length invariant holds, and is compressed with one of the codecs
// below before it is framed:
//
//	off  size  field
//	0x00 8     magic "SLABSNAP"
//	0x08 4     frame version
//	0x0C 1     codec
//	0x0D 3     reserved
//	0x10 4     cell size
//	0x14 4     cells num
//	0x18 4     segment flags
//	0x1C 4     reserved
//	0x20 8     raw image length
//	0x28 8     payload length
//	0x30 8     xxHash64 of the raw image
//	0x38 ...   payload
//
// Restore recreates a segment with the recorded geometry and policy and loads
// the image into it. Offsets held by clients before the dump stay valid.
package snapshot
