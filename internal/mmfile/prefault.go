package mmfile

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync/atomic"
	"unsafe"
)

// touchSink keeps the page reads in touch observable.
var touchSink atomic.Uint32

// touch faults in every page of data by hand. SetPanicOnFault turns a SIGBUS
// from a page the backing file cannot supply into a recoverable panic.
//
// With write set, each page is dirtied by an atomic add of zero to its first
// word, which allocates the page without changing what other processes see.
func touch(data []byte, write bool) (retErr error) {
	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("mmfile: memory access fault during prefault: %v", r)
		}
	}()

	page := os.Getpagesize()
	var sum uint32
	for i := 0; i < len(data); i += page {
		p := unsafe.Pointer(&data[i])
		if write && i+4 <= len(data) && uintptr(p)%4 == 0 {
			atomic.AddUint32((*uint32)(p), 0)
			continue
		}
		sum += uint32(data[i])
	}
	if n := len(data); n > 0 {
		sum += uint32(data[n-1])
	}
	touchSink.Add(sum)
	return nil
}
