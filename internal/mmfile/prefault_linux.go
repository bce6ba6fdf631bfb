//go:build linux

package mmfile

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// MADV_POPULATE_READ and MADV_POPULATE_WRITE are available since Linux 5.14.
// They fault pages in and report EFAULT/ENOMEM instead of raising SIGBUS.
const (
	madvPopulateRead  = 22
	madvPopulateWrite = 23
)

// Prefault makes every page of data resident so that a backing file which
// cannot supply its pages (a full tmpfs, a file truncated by another process)
// fails here with an error instead of crashing the process later. With write
// set, pages are also allocated for writing.
func Prefault(data []byte, write bool) error {
	if len(data) == 0 {
		return nil
	}
	advice := madvPopulateRead
	if write {
		advice = madvPopulateWrite
	}
	err := unix.Madvise(data, advice)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EINVAL) && !errors.Is(err, unix.ENOSYS) {
		return fmt.Errorf("mmfile: populate: %w", err)
	}
	// Kernel predates MADV_POPULATE_*.
	return touch(data, write)
}
