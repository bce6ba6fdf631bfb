//go:build linux

package store

import (
	"fmt"
	"math"

	"golang.org/x/sys/unix"
)

// SysV backs a region with a System V shared memory segment.
type SysV struct {
	Key  int
	Perm uint32
}

var _ Store = (*SysV)(nil)

// NewSysV returns a SysV store for key. IPC_PRIVATE (0) is rejected because
// no other process could find the segment; negative keys are rejected too.
func NewSysV(key int) (*SysV, error) {
	if key == unix.IPC_PRIVATE {
		return nil, fmt.Errorf("%w: sysv key 0 is IPC_PRIVATE", ErrInvalidSpec)
	}
	if key < 0 || key > math.MaxInt32 {
		return nil, fmt.Errorf("%w: sysv key %d out of range", ErrInvalidSpec, key)
	}
	return &SysV{Key: key, Perm: uint32(DefaultPerm)}, nil
}

func (s *SysV) Kind() Kind     { return KindSysV }
func (s *SysV) String() string { return fmt.Sprintf("sysv:%#x", s.Key) }

func (s *SysV) id() string { return fmt.Sprintf("key %#x", s.Key) }

func (s *SysV) perm() int {
	if s.Perm == 0 {
		return int(DefaultPerm)
	}
	return int(s.Perm)
}

// Create makes a new segment exclusively and attaches it. The kernel
// zero-fills fresh segments.
func (s *SysV) Create(size int) (Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrIO, size)
	}
	shmid, err := unix.SysvShmGet(s.Key, size, unix.IPC_CREAT|unix.IPC_EXCL|s.perm())
	if err != nil {
		return nil, classify("shmget", s.id(), err)
	}

	data, err := unix.SysvShmAttach(shmid, 0, 0)
	if err != nil {
		_, _ = unix.SysvShmCtl(shmid, unix.IPC_RMID, nil)
		return nil, classify("shmat", s.id(), err)
	}

	return &sysvMapping{shmid: shmid, key: s.id(), data: data[:size:size], raw: data}, nil
}

// Open attaches an existing segment whose size must equal size.
func (s *SysV) Open(size int) (Mapping, error) {
	shmid, err := unix.SysvShmGet(s.Key, 0, 0)
	if err != nil {
		return nil, classify("shmget", s.id(), err)
	}

	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(shmid, unix.IPC_STAT, &desc); err != nil {
		return nil, classify("shmctl", s.id(), err)
	}
	if uint64(desc.Segsz) != uint64(size) {
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrSizeMismatch, s.id(), desc.Segsz, size)
	}

	data, err := unix.SysvShmAttach(shmid, 0, 0)
	if err != nil {
		return nil, classify("shmat", s.id(), err)
	}

	return &sysvMapping{shmid: shmid, key: s.id(), data: data[:size:size], raw: data}, nil
}

// Remove marks the segment identified by the key for destruction.
func (s *SysV) Remove() error {
	shmid, err := unix.SysvShmGet(s.Key, 0, 0)
	if err != nil {
		return classify("shmget", s.id(), err)
	}
	if _, err := unix.SysvShmCtl(shmid, unix.IPC_RMID, nil); err != nil {
		return classify("shmctl", s.id(), err)
	}
	return nil
}

// Size returns the segment size reported by IPC_STAT.
func (s *SysV) Size() (int, error) {
	shmid, err := unix.SysvShmGet(s.Key, 0, 0)
	if err != nil {
		return 0, classify("shmget", s.id(), err)
	}
	var desc unix.SysvShmDesc
	if _, err := unix.SysvShmCtl(shmid, unix.IPC_STAT, &desc); err != nil {
		return 0, classify("shmctl", s.id(), err)
	}
	return int(desc.Segsz), nil
}

type sysvMapping struct {
	shmid int
	key   string
	data  []byte
	raw   []byte // full attachment as returned by shmat, needed for shmdt
}

func (m *sysvMapping) Bytes() []byte { return m.data }

// Sync is a no-op: System V segments have no backing file.
func (m *sysvMapping) Sync(bool) error {
	if m.data == nil {
		return ErrReleased
	}
	return nil
}

func (m *sysvMapping) Remove() error {
	if _, err := unix.SysvShmCtl(m.shmid, unix.IPC_RMID, nil); err != nil {
		return classify("shmctl", m.key, err)
	}
	return nil
}

func (m *sysvMapping) Release() error {
	if m.raw == nil {
		return nil
	}
	err := unix.SysvShmDetach(m.raw)
	m.data, m.raw = nil, nil
	if err != nil {
		return classify("shmdt", m.key, err)
	}
	return nil
}
