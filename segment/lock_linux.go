//go:build linux

package segment

import (
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Non-private futex operations: the word lives in memory shared between
// processes, so the kernel must key waiters on the physical page.
const (
	futexWait = 0
	futexWake = 1
)

// Lock word states.
const (
	unlocked  = 0
	locked    = 1
	contended = 2
)

// lockWord acquires the three-state futex mutex at w. Waiters always leave the
// word in the contended state so the holder knows to issue a wake on release.
func lockWord(w *uint32) {
	if atomic.CompareAndSwapUint32(w, unlocked, locked) {
		return
	}
	c := atomic.LoadUint32(w)
	if c != contended {
		c = atomic.SwapUint32(w, contended)
	}
	for c != unlocked {
		futex(w, futexWait, contended)
		c = atomic.SwapUint32(w, contended)
	}
}

func unlockWord(w *uint32) {
	if atomic.AddUint32(w, ^uint32(0)) != unlocked {
		atomic.StoreUint32(w, unlocked)
		futex(w, futexWake, 1)
	}
}

// futex issues the raw syscall. EAGAIN (word changed before sleeping) and
// EINTR both mean "re-check the word", which the callers do unconditionally.
func futex(addr *uint32, op int, val uint32) {
	_, _, _ = unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(addr)), uintptr(op), uintptr(val), 0, 0, 0)
}
