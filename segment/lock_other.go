//go:build !linux

package segment

import (
	"runtime"
	"sync/atomic"
	"time"
)

const spinYields = 64

// lockWord spins on a compare-and-swap, yielding first and then sleeping in
// short intervals once the lock has been held for a while.
func lockWord(w *uint32) {
	for spins := 0; !atomic.CompareAndSwapUint32(w, 0, 1); spins++ {
		if spins < spinYields {
			runtime.Gosched()
			continue
		}
		time.Sleep(50 * time.Microsecond)
	}
}

func unlockWord(w *uint32) {
	atomic.StoreUint32(w, 0)
}
