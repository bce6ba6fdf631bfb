package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/joshuapare/slabshm/internal/mmfile"
)

// DefaultPerm is the permission used for newly created regions.
const DefaultPerm os.FileMode = 0o600

// File backs a region with a regular file mapped MAP_SHARED.
type File struct {
	Path string
	Perm os.FileMode
}

var _ Store = (*File)(nil)

// NewFile returns a File store for path with DefaultPerm.
func NewFile(path string) *File {
	return &File{Path: path, Perm: DefaultPerm}
}

func (s *File) Kind() Kind     { return KindFile }
func (s *File) String() string { return "file:" + s.Path }

// Create creates the file exclusively, extends it to size bytes and maps it.
// The file system zero-fills the extension.
func (s *File) Create(size int) (Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrIO, size)
	}
	perm := s.Perm
	if perm == 0 {
		perm = DefaultPerm
	}
	f, err := os.OpenFile(s.Path, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return nil, classify("create", s.Path, err)
	}

	if err := f.Truncate(int64(size)); err != nil {
		_ = f.Close()
		_ = os.Remove(s.Path)
		return nil, classify("extend", s.Path, err)
	}

	data, unmap, err := mmfile.Map(f, size)
	if err != nil {
		_ = f.Close()
		_ = os.Remove(s.Path)
		return nil, classify("map", s.Path, err)
	}
	// A sparse file on a full tmpfs fails here rather than with SIGBUS on
	// first write.
	if err := mmfile.Prefault(data, true); err != nil {
		_ = unmap()
		_ = f.Close()
		_ = os.Remove(s.Path)
		return nil, fmt.Errorf("%w: %s: %w", ErrIO, s.Path, err)
	}

	return &fileMapping{f: f, path: s.Path, data: data, unmap: unmap}, nil
}

// Open maps an existing file. Its size must equal size exactly.
func (s *File) Open(size int) (Mapping, error) {
	f, err := os.OpenFile(s.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, classify("open", s.Path, err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, classify("stat", s.Path, err)
	}
	if st.Size() != int64(size) {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes, want %d", ErrSizeMismatch, s.Path, st.Size(), size)
	}

	data, unmap, err := mmfile.Map(f, size)
	if err != nil {
		_ = f.Close()
		return nil, classify("map", s.Path, err)
	}
	if err := mmfile.Prefault(data, false); err != nil {
		_ = unmap()
		_ = f.Close()
		return nil, fmt.Errorf("%w: %s truncated: %w", ErrIO, s.Path, err)
	}

	return &fileMapping{f: f, path: s.Path, data: data, unmap: unmap}, nil
}

// Remove unlinks the file.
func (s *File) Remove() error {
	if err := os.Remove(s.Path); err != nil {
		return classify("remove", s.Path, err)
	}
	return nil
}

// Size returns the current file size.
func (s *File) Size() (int, error) {
	st, err := os.Stat(s.Path)
	if err != nil {
		return 0, classify("stat", s.Path, err)
	}
	return int(st.Size()), nil
}

type fileMapping struct {
	f     *os.File
	path  string
	data  []byte
	unmap func() error
}

func (m *fileMapping) Bytes() []byte { return m.data }

func (m *fileMapping) Sync(async bool) error {
	if m.data == nil {
		return ErrReleased
	}
	if err := mmfile.Sync(m.data, async); err != nil {
		return classify("sync", m.path, err)
	}
	return nil
}

func (m *fileMapping) Remove() error {
	if err := os.Remove(m.path); err != nil {
		return classify("remove", m.path, err)
	}
	return nil
}

func (m *fileMapping) Release() error {
	if m.data == nil && m.f == nil {
		return nil
	}
	var errs []error
	if m.unmap != nil {
		if err := m.unmap(); err != nil {
			errs = append(errs, classify("unmap", m.path, err))
		}
	}
	if m.f != nil {
		if err := m.f.Close(); err != nil {
			errs = append(errs, classify("close", m.path, err))
		}
	}
	m.data, m.f, m.unmap = nil, nil, nil
	return errors.Join(errs...)
}
