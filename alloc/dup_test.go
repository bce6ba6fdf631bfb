package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/slabshm/segment"
)

func Test_Dup(t *testing.T) {
	a := newTestAllocator(t, 16, 8)
	data := []byte("0123456789abcdefXYZ")

	off, err := a.Dup(data)
	require.NoError(t, err)
	b, err := a.Bytes(off)
	require.NoError(t, err)
	require.Len(t, b, 32)
	require.Equal(t, data, b[:len(data)])
	require.Equal(t, make([]byte, 32-len(data)), b[len(data):])

	_, err = a.Dup(nil)
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
	_, err = a.Dup(make([]byte, 200))
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
}

func Test_DupString(t *testing.T) {
	a := newTestAllocator(t, 16, 8)

	// 16 characters need a second cell for the terminator.
	off, err := a.DupString("exactly16chars!!")
	require.NoError(t, err)
	require.Equal(t, []desc{{false, 2}, {false, 1}}, descriptors(a)[:2])
	s, err := a.String(off)
	require.NoError(t, err)
	require.Equal(t, "exactly16chars!!", s)

	off, err = a.DupString("")
	require.NoError(t, err)
	s, err = a.String(off)
	require.NoError(t, err)
	require.Empty(t, s)

	_, err = a.DupString(string(make([]byte, 128)))
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
}

func Test_DupEncoded(t *testing.T) {
	a := newTestAllocator(t, 16, 16)

	t.Run("windows-1252", func(t *testing.T) {
		off, err := a.DupEncoded("café €5", charmap.Windows1252)
		require.NoError(t, err)
		raw, err := a.Bytes(off)
		require.NoError(t, err)
		require.Equal(t, []byte{'c', 'a', 'f', 0xE9, ' ', 0x80, '5', 0}, raw[:8])

		s, err := a.StringEncoded(off, charmap.Windows1252)
		require.NoError(t, err)
		require.Equal(t, "café €5", s)
	})

	t.Run("utf-16le", func(t *testing.T) {
		enc := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		off, err := a.DupEncoded("Hé", enc)
		require.NoError(t, err)
		raw, err := a.Bytes(off)
		require.NoError(t, err)
		require.Equal(t, []byte{'H', 0, 0xE9, 0, 0, 0}, raw[:6])

		s, err := a.StringEncoded(off, enc)
		require.NoError(t, err)
		require.Equal(t, "Hé", s)
	})

	t.Run("unencodable", func(t *testing.T) {
		_, err := a.DupEncoded("日本", charmap.Windows1252)
		require.ErrorIs(t, err, segment.ErrInvalidParameters)
	})

	_, err := a.DupEncoded("x", nil)
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
}

func Test_Bytes_Invalid(t *testing.T) {
	a := newTestAllocator(t, 16, 4)
	off := mustAlloc(t, a, 48, NoHint)

	_, err := a.Bytes(off + 16)
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
	_, err = a.Bytes(48)
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
	_, err = a.String(3)
	require.ErrorIs(t, err, segment.ErrInvalidParameters)
}

func Test_Copy(t *testing.T) {
	a := newTestAllocator(t, 16, 4)
	off, err := a.Dup([]byte("abc"))
	require.NoError(t, err)

	c, err := a.Copy(off)
	require.NoError(t, err)
	require.Len(t, c, 16)
	c[0] = 'z'
	s, err := a.String(off)
	require.NoError(t, err)
	require.Equal(t, "abc", s)
}
