package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileCreateOpenShareBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	st := NewFile(path)

	m1, err := st.Create(8192)
	require.NoError(t, err)
	defer m1.Release()
	require.Len(t, m1.Bytes(), 8192)
	for _, b := range m1.Bytes() {
		require.Zero(t, b)
	}

	m2, err := st.Open(8192)
	require.NoError(t, err)
	defer m2.Release()

	m1.Bytes()[4000] = 0x5a
	require.Equal(t, byte(0x5a), m2.Bytes()[4000], "mappings must share pages")
	require.NoError(t, m1.Sync(false))
}

func TestFileCreateIsExclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	require.NoError(t, os.WriteFile(path, []byte("occupied"), 0o600))

	_, err := NewFile(path).Create(4096)
	require.ErrorIs(t, err, ErrExists)

	// The existing file must be left alone.
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "occupied", string(got))
}

func TestFileOpenErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewFile(filepath.Join(dir, "missing")).Open(4096)
	require.ErrorIs(t, err, ErrNotFound)

	path := filepath.Join(dir, "short")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o600))
	_, err = NewFile(path).Open(4096)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestFileRemoveKeepsExistingMappingValid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	st := NewFile(path)

	m, err := st.Create(4096)
	require.NoError(t, err)
	m.Bytes()[0] = 1

	require.NoError(t, m.Remove())
	_, err = st.Open(4096)
	require.ErrorIs(t, err, ErrNotFound)

	// Still mapped in this process.
	require.Equal(t, byte(1), m.Bytes()[0])
	require.NoError(t, m.Release())
	require.NoError(t, m.Release(), "second release is a no-op")
	require.Nil(t, m.Bytes())
	require.ErrorIs(t, m.Sync(true), ErrReleased)
}

func TestFileStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	st := NewFile(path)
	require.ErrorIs(t, st.Remove(), ErrNotFound)

	m, err := st.Create(4096)
	require.NoError(t, err)
	require.NoError(t, m.Release())
	require.NoError(t, st.Remove())
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestFileSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg")
	st := NewFile(path)
	_, err := st.Size()
	require.ErrorIs(t, err, ErrNotFound)

	m, err := st.Create(12288)
	require.NoError(t, err)
	defer m.Release()
	size, err := st.Size()
	require.NoError(t, err)
	require.Equal(t, 12288, size)
}
