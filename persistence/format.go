package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/leadrec/codec"
)

const (
	// MagicNumber identifies model artifacts ("LRM1" on disk).
	MagicNumber = 0x314D524C
	// Version is the current artifact format version.
	Version = 1

	// HeaderSize is the encoded size of FileHeader.
	HeaderSize = 64
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrCorruptModel covers every structural problem found after the
	// header was accepted.
	ErrCorruptModel = errors.New("corrupt model artifact")
)

// Compression selects how the body is stored.
type Compression uint16

const (
	CompressionNone Compression = iota
	CompressionZSTD
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZSTD:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint16(c))
	}
}

// ParseCompression parses "none", "zstd" or "lz4".
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZSTD, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("persistence: unknown compression %q", name)
	}
}

// FileHeader is the 64-byte header at the start of every artifact.
type FileHeader struct {
	Magic       uint32
	Version     uint16
	Compression Compression
	Codec       [codec.MaxNameLen]byte
	BodySize    uint64 // stored (possibly compressed) body
	RawSize     uint64 // body after decompression
	Checksum    uint32 // CRC32 of the header (this field zeroed) and stored body
	Reserved    [20]byte
}

// CodecName returns the codec name recorded in the header.
func (h *FileHeader) CodecName() string {
	return string(bytes.TrimRight(h.Codec[:], "\x00"))
}

func (h *FileHeader) setCodec(name string) error {
	if len(name) > len(h.Codec) {
		return fmt.Errorf("persistence: codec name %q longer than %d bytes", name, len(h.Codec))
	}
	clear(h.Codec[:])
	copy(h.Codec[:], name)
	return nil
}

func writeHeader(w io.Writer, h *FileHeader) error {
	h.Magic = MagicNumber
	h.Version = Version
	return binary.Write(w, binary.LittleEndian, h)
}

// ReadHeader reads and validates an artifact header.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var h FileHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated header", ErrCorruptModel)
		}
		return nil, err
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidVersion, h.Version, Version)
	}
	if h.Compression > CompressionLZ4 {
		return nil, fmt.Errorf("%w: unknown %s", ErrCorruptModel, h.Compression)
	}
	if _, ok := codec.ByName(h.CodecName()); !ok {
		return nil, fmt.Errorf("%w: unknown codec %q", ErrCorruptModel, h.CodecName())
	}
	return &h, nil
}
