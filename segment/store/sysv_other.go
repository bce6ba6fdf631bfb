//go:build !linux

package store

import (
	"fmt"
	"math"
)

// SysV backs a region with a System V shared memory segment. It is only
// available on Linux; every operation here fails with ErrUnsupported.
type SysV struct {
	Key  int
	Perm uint32
}

var _ Store = (*SysV)(nil)

// NewSysV returns a SysV store for key.
func NewSysV(key int) (*SysV, error) {
	if key == 0 {
		return nil, fmt.Errorf("%w: sysv key 0 is IPC_PRIVATE", ErrInvalidSpec)
	}
	if key < 0 || key > math.MaxInt32 {
		return nil, fmt.Errorf("%w: sysv key %d out of range", ErrInvalidSpec, key)
	}
	return &SysV{Key: key}, nil
}

func (s *SysV) Kind() Kind     { return KindSysV }
func (s *SysV) String() string { return fmt.Sprintf("sysv:%#x", s.Key) }

func (s *SysV) Create(int) (Mapping, error) { return nil, ErrUnsupported }
func (s *SysV) Open(int) (Mapping, error)   { return nil, ErrUnsupported }
func (s *SysV) Remove() error               { return ErrUnsupported }
func (s *SysV) Size() (int, error)          { return 0, ErrUnsupported }
