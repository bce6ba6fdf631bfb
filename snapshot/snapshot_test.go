package snapshot

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/slabshm/alloc"
	"github.com/joshuapare/slabshm/internal/format"
	"github.com/joshuapare/slabshm/segment"
	"github.com/joshuapare/slabshm/segment/store"
)

func newStore(t *testing.T) *store.File {
	t.Helper()
	return store.NewFile(filepath.Join(t.TempDir(), "seg"))
}

// populated creates a segment with a few live strings and one freed hole.
func populated(t *testing.T, opts ...segment.Option) (*segment.Segment, map[alloc.Offset]string) {
	t.Helper()
	seg, err := segment.Create(newStore(t), 32, 64, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = seg.Destroy() })

	a, err := alloc.New(seg)
	require.NoError(t, err)
	live := map[alloc.Offset]string{}
	for _, s := range []string{"alpha", "a somewhat longer string spanning cells", "gamma"} {
		off, err := a.DupString(s)
		require.NoError(t, err)
		live[off] = s
	}
	hole, err := a.Alloc(100)
	require.NoError(t, err)
	require.NoError(t, a.Free(hole))
	off, err := a.DupString("tail")
	require.NoError(t, err)
	live[off] = "tail"
	return seg, live
}

func Test_WriteRestore_Codecs(t *testing.T) {
	for _, codec := range []Codec{CodecNone, CodecZstd, CodecS2, CodecLZ4} {
		t.Run(codec.String(), func(t *testing.T) {
			seg, live := populated(t)

			var buf bytes.Buffer
			n, err := Write(&buf, seg, codec)
			require.NoError(t, err)
			require.EqualValues(t, buf.Len(), n)
			if codec != CodecNone {
				require.Less(t, buf.Len(), int(seg.Size()))
			}

			restored, err := Restore(&buf, newStore(t))
			require.NoError(t, err)
			defer restored.Destroy()

			require.Equal(t, []byte(seg.Cells()), []byte(restored.Cells()))
			require.Equal(t, seg.Pool(), restored.Pool())
			want, err := seg.Stats()
			require.NoError(t, err)
			got, err := restored.Stats()
			require.NoError(t, err)
			require.Equal(t, want, got)

			a, err := alloc.New(restored)
			require.NoError(t, err)
			require.NoError(t, a.Verify())
			for off, s := range live {
				v, err := a.String(off)
				require.NoError(t, err)
				require.Equal(t, s, v)
			}
		})
	}
}

func Test_Restore_KeepsForwardCoalesce(t *testing.T) {
	seg, _ := populated(t, segment.WithForwardCoalesce())
	var buf bytes.Buffer
	_, err := Write(&buf, seg, CodecS2)
	require.NoError(t, err)

	restored, err := Restore(&buf, newStore(t))
	require.NoError(t, err)
	defer restored.Destroy()
	require.True(t, restored.ForwardCoalesce())
}

func Test_Restore_ExistingStore(t *testing.T) {
	seg, _ := populated(t)
	var buf bytes.Buffer
	_, err := Write(&buf, seg, CodecNone)
	require.NoError(t, err)

	_, err = Restore(&buf, seg.Store())
	require.ErrorIs(t, err, segment.ErrExists)
}

func dump(t *testing.T, codec Codec) []byte {
	t.Helper()
	seg, _ := populated(t)
	var buf bytes.Buffer
	_, err := Write(&buf, seg, codec)
	require.NoError(t, err)
	return buf.Bytes()
}

// frameFor seals a frame header for the given geometry around payload. The
// hash is left zero; these frames must be rejected before it is checked.
func frameFor(codec Codec, cellSize, cellsNum uint32, payload []byte) []byte {
	frame := make([]byte, FrameSize, FrameSize+len(payload))
	copy(frame, Magic)
	format.PutU32(frame, frameVersionOffset, FrameVersion)
	frame[frameCodecOffset] = byte(codec)
	format.PutU32(frame, frameCellSizeOffset, cellSize)
	format.PutU32(frame, frameCellsNumOffset, cellsNum)
	format.PutU64(frame, frameRawLenOffset, rawLen(cellSize, cellsNum))
	format.PutU64(frame, framePayloadOffset, uint64(len(payload)))
	return append(frame, payload...)
}

func Test_Read_Rejects(t *testing.T) {
	t.Run("image over size limit", func(t *testing.T) {
		b := frameFor(CodecLZ4, 1<<20, 1<<31, nil)
		require.Len(t, b, FrameSize)
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
		require.ErrorContains(t, err, "exceeds limit")
	})
	t.Run("payload longer than input", func(t *testing.T) {
		b := frameFor(CodecNone, 1<<20, 1024, []byte("short"))
		format.PutU64(b, framePayloadOffset, maxPayload(rawLen(1<<20, 1024)))
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
		require.ErrorContains(t, err, "truncated")
	})
	t.Run("lz4 expansion", func(t *testing.T) {
		b := frameFor(CodecLZ4, 1<<20, 64, make([]byte, 16))
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
		require.ErrorContains(t, err, "cannot hold")
	})
	t.Run("zstd content size", func(t *testing.T) {
		payload, err := CodecZstd.compress(make([]byte, 100))
		require.NoError(t, err)
		b := frameFor(CodecZstd, 16, 8, payload)
		_, err = Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
	})
	t.Run("magic", func(t *testing.T) {
		b := dump(t, CodecNone)
		b[0] = 'X'
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
	})
	t.Run("version", func(t *testing.T) {
		b := dump(t, CodecNone)
		format.PutU32(b, frameVersionOffset, 9)
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
	})
	t.Run("truncated", func(t *testing.T) {
		b := dump(t, CodecZstd)
		_, err := Read(bytes.NewReader(b[:len(b)-3]))
		require.ErrorIs(t, err, ErrBadFrame)
		_, err = Read(bytes.NewReader(b[:10]))
		require.ErrorIs(t, err, ErrBadFrame)
	})
	t.Run("geometry", func(t *testing.T) {
		b := dump(t, CodecNone)
		format.PutU32(b, frameCellSizeOffset, 48)
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrBadFrame)
		require.ErrorIs(t, err, format.ErrGeometry)
	})
	t.Run("codec", func(t *testing.T) {
		b := dump(t, CodecNone)
		b[frameCodecOffset] = 77
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrUnknownCodec)
	})
	t.Run("checksum", func(t *testing.T) {
		b := dump(t, CodecNone)
		b[len(b)-1] ^= 0x01
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, ErrChecksum)
	})
	t.Run("corrupt descriptors", func(t *testing.T) {
		b := dump(t, CodecNone)
		raw := b[FrameSize:]
		// Zero the run length of the first descriptor and re-seal the frame.
		format.PutU32(raw, format.StatsSize+format.DescRunLenField, 0)
		format.PutU64(b, frameHashOffset, xxhash.Sum64(raw))
		_, err := Read(bytes.NewReader(b))
		require.ErrorIs(t, err, segment.ErrCorrupted)
	})
}

func Test_ParseCodec(t *testing.T) {
	for name, want := range map[string]Codec{"": CodecNone, "none": CodecNone, "ZSTD": CodecZstd, "s2": CodecS2, " lz4 ": CodecLZ4} {
		got, err := ParseCodec(name)
		require.NoError(t, err, name)
		require.Equal(t, want, got, name)
	}
	_, err := ParseCodec("brotli")
	require.ErrorIs(t, err, ErrUnknownCodec)
	require.Equal(t, "codec(9)", Codec(9).String())
}
