package persistence

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

// compress returns the stored form of raw and the compression actually
// used. Input that LZ4 cannot shrink is stored uncompressed.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, err
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(raw, nil), CompressionZSTD, nil
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, dst, nil)
		if err != nil {
			return nil, 0, err
		}
		if n == 0 {
			return raw, CompressionNone, nil
		}
		return dst[:n], CompressionLZ4, nil
	default:
		return nil, 0, fmt.Errorf("persistence: unsupported %s", c)
	}
}

// decompress inverts compress. rawSize comes from the header and is
// checked against the output.
func decompress(stored []byte, c Compression, rawSize uint64) ([]byte, error) {
	var (
		raw []byte
		err error
	)
	switch c {
	case CompressionNone:
		raw = stored
	case CompressionZSTD:
		dec, derr := getZstdDecoder()
		if derr != nil {
			return nil, derr
		}
		defer zstdDecoderPool.Put(dec)
		raw, err = dec.DecodeAll(stored, make([]byte, 0, int(rawSize)))
	case CompressionLZ4:
		raw = make([]byte, int(rawSize))
		var n int
		n, err = lz4.UncompressBlock(stored, raw)
		raw = raw[:n]
	default:
		return nil, fmt.Errorf("%w: unsupported %s", ErrCorruptModel, c)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s body: %w", ErrCorruptModel, c, err)
	}
	if uint64(len(raw)) != rawSize {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorruptModel, len(raw), rawSize)
	}
	return raw, nil
}
