package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Kind identifies a backing store implementation.
type Kind int

const (
	KindFile Kind = iota + 1
	KindSysV
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindSysV:
		return "sysv"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Store acquires regions of shared memory identified by a single identifier.
type Store interface {
	// Create makes a fresh zero-filled region of exactly size bytes and maps
	// it read-write. It fails with ErrExists if the identifier is taken.
	Create(size int) (Mapping, error)

	// Open maps an existing region created under the same identifier. It fails
	// with ErrNotFound if none exists and ErrSizeMismatch if its size differs.
	Open(size int) (Mapping, error)

	// Remove deletes the region by identifier without mapping it.
	Remove() error

	// Size reports the size of the existing region in bytes.
	Size() (int, error)

	// Kind reports the implementation.
	Kind() Kind

	// String returns the identifier in ParseSpec form.
	String() string
}

// Mapping is one process's read-write view of a region.
type Mapping interface {
	// Bytes returns the mapped region. The slice is invalid after Release.
	Bytes() []byte

	// Sync flushes the region to durable backing where that applies. With
	// async set the flush is only scheduled.
	Sync(async bool) error

	// Remove marks the region for removal. Existing mappings in other
	// processes stay valid until they release.
	Remove() error

	// Release unmaps the region from the calling process. It does not affect
	// other processes. Releasing twice is a no-op.
	Release() error
}

// ParseSpec builds a Store from its textual form:
//
//	file:<path>        memory-mapped regular file
//	<path>             same, when the path starts with '/' or '.'
//	sysv:<key>         System V segment, positive key in Go integer syntax (0x.. allowed)
//	sysv-name:<name>   System V segment, key derived with KeyFromName
func ParseSpec(spec string) (Store, error) {
	kind, rest, found := strings.Cut(spec, ":")
	if !found {
		if strings.HasPrefix(spec, "/") || strings.HasPrefix(spec, ".") {
			return NewFile(spec), nil
		}
		return nil, fmt.Errorf("%w: %q (want file:<path>, sysv:<key> or sysv-name:<name>)", ErrInvalidSpec, spec)
	}
	switch kind {
	case "file":
		if rest == "" {
			return nil, fmt.Errorf("%w: empty path", ErrInvalidSpec)
		}
		return NewFile(rest), nil
	case "sysv":
		// 31 bits: keys are positive so String parses back to the same key.
		key, err := strconv.ParseUint(rest, 0, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: sysv key %q: %w", ErrInvalidSpec, rest, err)
		}
		return newSysV(int(key))
	case "sysv-name":
		if rest == "" {
			return nil, fmt.Errorf("%w: empty sysv name", ErrInvalidSpec)
		}
		return newSysV(KeyFromName(rest))
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, kind)
	}
}

func newSysV(key int) (Store, error) {
	s, err := NewSysV(key)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// KeyFromName derives a System V key from a name, the way ftok(3) derives one
// from a path. The result is positive and never IPC_PRIVATE (0).
func KeyFromName(name string) int {
	k := int(xxhash.Sum64String(name) & 0x7fffffff)
	if k == 0 {
		k = 1
	}
	return k
}
