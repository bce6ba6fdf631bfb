package snapshot

import (
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"

	"github.com/joshuapare/slabshm/internal/format"
	"github.com/joshuapare/slabshm/internal/logger"
	"github.com/joshuapare/slabshm/segment"
	"github.com/joshuapare/slabshm/segment/store"
)

// Frame constants.
const (
	Magic        = "SLABSNAP"
	FrameVersion = 1
	FrameSize    = 0x38

	frameVersionOffset  = 0x08
	frameCodecOffset    = 0x0C
	frameCellSizeOffset = 0x10
	frameCellsNumOffset = 0x14
	frameFlagsOffset    = 0x18
	frameRawLenOffset   = 0x20
	framePayloadOffset  = 0x28
	frameHashOffset     = 0x30
)

// MaxImageSize is the largest uncompressed image Read accepts. Raise it before
// reading snapshots of bigger segments.
var MaxImageSize uint64 = 1 << 32

// Image is a decoded snapshot.
type Image struct {
	CellSize uint32
	CellsNum uint32
	Flags    uint32
	Codec    Codec

	Stats [format.NumStats]uint64
	Cells format.Cells
	Pool  []byte
}

func rawLen(cellSize, cellsNum uint32) uint64 {
	return uint64(format.StatsSize) + uint64(cellsNum)*format.DescriptorSize + uint64(cellsNum)*uint64(cellSize)
}

// Write captures seg under its lock and writes one compressed frame to w. It
// returns the number of bytes written.
func Write(w io.Writer, seg *segment.Segment, codec Codec) (int64, error) {
	if seg == nil {
		return 0, fmt.Errorf("%w: nil segment", segment.ErrInvalidParameters)
	}
	raw, err := capture(seg)
	if err != nil {
		return 0, err
	}
	payload, err := codec.compress(raw)
	if err != nil {
		return 0, fmt.Errorf("compress: %w", err)
	}

	frame := make([]byte, FrameSize)
	copy(frame, Magic)
	format.PutU32(frame, frameVersionOffset, FrameVersion)
	frame[frameCodecOffset] = byte(codec)
	format.PutU32(frame, frameCellSizeOffset, seg.CellSize())
	format.PutU32(frame, frameCellsNumOffset, seg.CellsNum())
	format.PutU32(frame, frameFlagsOffset, seg.Flags())
	format.PutU64(frame, frameRawLenOffset, uint64(len(raw)))
	format.PutU64(frame, framePayloadOffset, uint64(len(payload)))
	format.PutU64(frame, frameHashOffset, xxhash.Sum64(raw))

	n, err := w.Write(frame)
	written := int64(n)
	if err != nil {
		return written, fmt.Errorf("write frame: %w", err)
	}
	n, err = w.Write(payload)
	written += int64(n)
	if err != nil {
		return written, fmt.Errorf("write payload: %w", err)
	}

	logger.L.Debug("snapshot written",
		"store", seg.Store().String(),
		"codec", codec.String(),
		"raw", len(raw),
		"payload", len(payload))
	return written, nil
}

// capture copies the counters, descriptors and pool under the segment lock.
func capture(seg *segment.Segment) ([]byte, error) {
	if err := seg.Lock(); err != nil {
		return nil, err
	}
	defer seg.Unlock()

	hdr, cells, pool := seg.Header(), seg.Cells(), seg.Pool()
	raw := make([]byte, 0, rawLen(seg.CellSize(), seg.CellsNum()))
	raw = append(raw, hdr[format.HeaderStatsOffset:format.HeaderStatsOffset+format.StatsSize]...)
	raw = append(raw, cells...)
	raw = append(raw, pool...)
	return raw, nil
}

// Read decodes one frame from r and checks the image it carries.
func Read(r io.Reader) (*Image, error) {
	frame := make([]byte, FrameSize)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("%w: read frame: %w", ErrBadFrame, err)
	}
	if string(frame[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: signature mismatch", ErrBadFrame)
	}
	if v := format.ReadU32(frame, frameVersionOffset); v != FrameVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadFrame, v)
	}

	img := &Image{
		Codec:    Codec(frame[frameCodecOffset]),
		CellSize: format.ReadU32(frame, frameCellSizeOffset),
		CellsNum: format.ReadU32(frame, frameCellsNumOffset),
		Flags:    format.ReadU32(frame, frameFlagsOffset),
	}
	if _, err := format.ComputeLayout(img.CellSize, img.CellsNum); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFrame, err)
	}
	want := rawLen(img.CellSize, img.CellsNum)
	if got := format.ReadU64(frame, frameRawLenOffset); got != want {
		return nil, fmt.Errorf("%w: raw length %d, geometry needs %d", ErrBadFrame, got, want)
	}
	if want > MaxImageSize {
		return nil, fmt.Errorf("%w: image of %d bytes exceeds limit of %d", ErrBadFrame, want, MaxImageSize)
	}
	payloadLen := format.ReadU64(frame, framePayloadOffset)
	if payloadLen > maxPayload(want) {
		return nil, fmt.Errorf("%w: payload length %d", ErrBadFrame, payloadLen)
	}

	// The buffer grows with what r actually holds, not with the claimed length.
	payload, err := io.ReadAll(io.LimitReader(r, int64(payloadLen)))
	if err != nil {
		return nil, fmt.Errorf("%w: read payload: %w", ErrBadFrame, err)
	}
	if uint64(len(payload)) != payloadLen {
		return nil, fmt.Errorf("%w: payload truncated at %d of %d bytes", ErrBadFrame, len(payload), payloadLen)
	}
	raw, err := img.Codec.decompress(payload, int(want))
	if err != nil {
		return nil, err
	}
	if xxhash.Sum64(raw) != format.ReadU64(frame, frameHashOffset) {
		return nil, ErrChecksum
	}

	for i := range img.Stats {
		img.Stats[i] = format.ReadU64(raw, i*8)
	}
	cellsEnd := format.StatsSize + int(img.CellsNum)*format.DescriptorSize
	img.Cells = format.Cells(raw[format.StatsSize:cellsEnd])
	img.Pool = raw[cellsEnd:]

	if err := img.Cells.Verify(img.CellSize); err != nil {
		return nil, fmt.Errorf("%w: %w", segment.ErrCorrupted, err)
	}
	return img, nil
}

// maxPayload bounds the compressed size accepted for an image of rawLen bytes.
// Every codec stays below raw size plus a small fraction on incompressible
// input.
func maxPayload(rawLen uint64) uint64 {
	return rawLen + rawLen/8 + 1<<16
}

// Restore reads a frame from r and creates a new segment in st holding the
// image. The forward coalescing policy is taken from the image; opts may add a
// logger.
func Restore(r io.Reader, st store.Store, opts ...segment.Option) (*segment.Segment, error) {
	img, err := Read(r)
	if err != nil {
		return nil, err
	}
	if img.Flags&format.FlagForwardCoalesce != 0 {
		opts = append(opts, segment.WithForwardCoalesce())
	}

	seg, err := segment.Create(st, img.CellSize, img.CellsNum, opts...)
	if err != nil {
		return nil, err
	}
	if err := load(seg, img); err != nil {
		_ = seg.Destroy()
		return nil, err
	}
	seg.Logger().Info("snapshot restored",
		"store", st.String(),
		"cell_size", img.CellSize,
		"cells_num", img.CellsNum,
		"codec", img.Codec.String())
	return seg, nil
}

func load(seg *segment.Segment, img *Image) error {
	if err := seg.Lock(); err != nil {
		return err
	}
	defer seg.Unlock()

	hdr := seg.Header()
	for i, v := range img.Stats {
		hdr.SetStat(format.Stat(i), v)
	}
	copy(seg.Cells(), img.Cells)
	copy(seg.Pool(), img.Pool)
	return nil
}
