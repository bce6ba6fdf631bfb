package snapshot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects the compression applied to the image.
type Codec uint8

const (
	CodecNone Codec = iota
	CodecZstd
	CodecS2
	CodecLZ4
)

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecZstd:
		return "zstd"
	case CodecS2:
		return "s2"
	case CodecLZ4:
		return "lz4"
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

// ParseCodec maps a codec name to its Codec.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CodecNone, nil
	case "zstd":
		return CodecZstd, nil
	case "s2":
		return CodecS2, nil
	case "lz4":
		return CodecLZ4, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

var zstdEncoderPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("zstd encoder: %v", err))
		}
		return enc
	},
}

var zstdDecoderPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(fmt.Sprintf("zstd decoder: %v", err))
		}
		return dec
	},
}

// lz4MaxRatio bounds how far one byte of an lz4 block can expand.
const lz4MaxRatio = 256

var lz4CompressorPool = sync.Pool{
	New: func() any { return &lz4.Compressor{} },
}

func (c Codec) compress(raw []byte) ([]byte, error) {
	switch c {
	case CodecNone:
		return raw, nil
	case CodecZstd:
		enc, _ := zstdEncoderPool.Get().(*zstd.Encoder)
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), nil
	case CodecS2:
		return s2.Encode(nil, raw), nil
	case CodecLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
		defer lz4CompressorPool.Put(lc)
		n, err := lc.CompressBlock(raw, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
}

// decompress expands payload into a buffer of exactly rawLen bytes.
func (c Codec) decompress(payload []byte, rawLen int) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch c {
	case CodecNone:
		out = payload
	case CodecZstd:
		var h zstd.Header
		if err := h.Decode(payload); err != nil {
			return nil, fmt.Errorf("%w: zstd header: %w", ErrBadFrame, err)
		}
		if h.HasFCS && h.FrameContentSize != uint64(rawLen) {
			return nil, fmt.Errorf("%w: zstd payload holds %d bytes, want %d", ErrBadFrame, h.FrameContentSize, rawLen)
		}
		dec, _ := zstdDecoderPool.Get().(*zstd.Decoder)
		defer zstdDecoderPool.Put(dec)
		out, err = dec.DecodeAll(payload, make([]byte, 0, rawLen))
	case CodecS2:
		var n int
		if n, err = s2.DecodedLen(payload); err == nil && n != rawLen {
			return nil, fmt.Errorf("%w: s2 payload decodes to %d bytes, want %d", ErrBadFrame, n, rawLen)
		}
		if err == nil {
			out, err = s2.Decode(make([]byte, rawLen), payload)
		}
	case CodecLZ4:
		if uint64(rawLen) > uint64(len(payload))*lz4MaxRatio+64 {
			return nil, fmt.Errorf("%w: lz4 payload of %d bytes cannot hold %d", ErrBadFrame, len(payload), rawLen)
		}
		out = make([]byte, rawLen)
		var n int
		n, err = lz4.UncompressBlock(payload, out)
		out = out[:n]
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownCodec, uint8(c))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c, err)
	}
	if len(out) != rawLen {
		return nil, fmt.Errorf("%w: %s payload decodes to %d bytes, want %d", ErrBadFrame, c, len(out), rawLen)
	}
	return out, nil
}
