//go:build unix

// Package mmfile provides platform-specific helpers for mapping segment files
// read-write and shared between processes.
package mmfile

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Map maps the first size bytes of f read-write with MAP_SHARED semantics, so
// stores are visible to every process mapping the same file. The returned
// cleanup unmaps the region; the file itself may be closed independently.
func Map(f *os.File, size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: mmap %s: %w", f.Name(), err)
	}
	cleanup := func() error {
		if data == nil {
			return nil
		}
		err := unix.Munmap(data)
		data = nil
		if errors.Is(err, unix.EINVAL) {
			// Treat double-unmap as no-op for callers.
			return nil
		}
		return err
	}
	return data, cleanup, nil
}

// Sync flushes a mapped region to its backing file. With async set the call
// only schedules the write-back.
func Sync(data []byte, async bool) error {
	if len(data) == 0 {
		return nil
	}
	flags := unix.MS_SYNC
	if async {
		flags = unix.MS_ASYNC
	}
	return unix.Msync(data, flags)
}
