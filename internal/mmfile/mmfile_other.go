//go:build !unix

// Package mmfile provides platform-specific helpers for mapping segment files
// read-write and shared between processes.
package mmfile

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Map maps the first size bytes of f read-write and shared.
func Map(f *os.File, size int) ([]byte, func() error, error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("mmfile: invalid mapping size %d", size)
	}
	m, err := mmap.MapRegion(f, size, mmap.RDWR, 0, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("mmfile: map %s: %w", f.Name(), err)
	}
	cleanup := func() error {
		if m == nil {
			return nil
		}
		err := m.Unmap()
		m = nil
		return err
	}
	return m, cleanup, nil
}

// Sync flushes a mapped region to its backing file. The async hint is ignored
// on these platforms.
func Sync(data []byte, _ bool) error {
	if len(data) == 0 {
		return nil
	}
	return mmap.MMap(data).Flush()
}
