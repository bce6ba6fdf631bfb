// Package store acquires the shared memory that backs a segment.
//
// A Store names a region by an identifier and knows how to create it, open it
// again from another process, and remove it. Two implementations exist:
//
//   - File: a regular file mapped with MAP_SHARED. The identifier is a path,
//     typically under /dev/shm so the pages never reach a disk.
//   - SysV: a System V shared memory segment (shmget/shmat). The identifier is
//     a numeric key. Linux only.
//
// Both are chosen at runtime, usually via ParseSpec:
//
//	st, err := store.ParseSpec("file:/dev/shm/orders")
//	st, err := store.ParseSpec("sysv:0x5eed")
//	st, err := store.ParseSpec("sysv-name:orders") // key derived from the name
//
// One segment must use one store for its whole lifetime; mixing identifiers of
// different kinds for the same region is not supported.
//
// # Mappings
//
// Create and Open return a Mapping: the process-local view of the region.
// Release unmaps it from the calling process only. Remove marks the region for
// removal so later Open calls fail; processes that still have it mapped keep a
// valid view until they Release.
package store
