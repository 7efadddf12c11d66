package persistence

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/leadrec/codec"
	"github.com/hupe1980/leadrec/internal/mmap"
	"github.com/hupe1980/leadrec/internal/sparse"
	"github.com/hupe1980/leadrec/resource"
	"github.com/hupe1980/leadrec/schema"
	"github.com/hupe1980/leadrec/tfidf"
)

// Manifest is the codec-encoded part of the body. The counts size the
// binary sections that follow it.
type Manifest struct {
	ModelID   string         `json:"model_id"`
	CreatedAt time.Time      `json:"created_at"`
	Params    tfidf.Params   `json:"params"`
	Schema    *schema.Schema `json:"schema,omitempty"`
	Rows      int            `json:"rows"`
	Terms     int            `json:"terms"`
	NNZ       int            `json:"nnz"`
}

type options struct {
	codec       codec.Codec
	compression Compression
	rc          *resource.Controller
	logger      *slog.Logger
}

// Option configures Save and Load.
type Option func(*options)

// WithCodec sets the manifest codec used by Save. Load always uses the
// codec named in the header.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithCompression sets the body compression used by Save.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithController rate limits artifact I/O.
func WithController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) options {
	o := options{codec: codec.Default, compression: CompressionZSTD}
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Save writes m as a single artifact and returns the number of bytes written.
func Save(ctx context.Context, w io.Writer, m *tfidf.Model, opts ...Option) (int64, error) {
	o := applyOptions(opts)
	if m == nil {
		return 0, fmt.Errorf("persistence: nil model")
	}

	raw, err := encodeBody(m, o.codec)
	if err != nil {
		return 0, err
	}
	stored, comp, err := compress(raw, o.compression)
	if err != nil {
		return 0, err
	}

	h := FileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: comp,
		BodySize:    uint64(len(stored)),
		RawSize:     uint64(len(raw)),
	}
	if err := h.setCodec(o.codec.Name()); err != nil {
		return 0, err
	}
	if h.Checksum, err = artifactChecksum(h, stored); err != nil {
		return 0, err
	}

	if o.rc != nil {
		w = resource.NewRateLimitedWriter(ctx, w, o.rc)
	}
	if err := writeHeader(w, &h); err != nil {
		return 0, err
	}
	if _, err := w.Write(stored); err != nil {
		return HeaderSize, err
	}

	n := int64(HeaderSize + len(stored))
	o.logger.DebugContext(ctx, "model saved",
		"model_id", m.ID, "bytes", n, "raw_bytes", len(raw), "compression", comp.String(), "codec", o.codec.Name())
	return n, nil
}

// Load reads an artifact written by Save.
func Load(ctx context.Context, r io.Reader, opts ...Option) (*tfidf.Model, error) {
	o := applyOptions(opts)
	if o.rc != nil {
		r = resource.NewRateLimitedReader(ctx, r, o.rc)
	}

	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	if h.BodySize > math.MaxInt64 {
		return nil, fmt.Errorf("%w: body size %d", ErrCorruptModel, h.BodySize)
	}
	// ReadAll grows with the data rather than trusting BodySize up front.
	stored, err := io.ReadAll(io.LimitReader(r, int64(h.BodySize)))
	if err != nil {
		return nil, err
	}
	if uint64(len(stored)) != h.BodySize {
		return nil, fmt.Errorf("%w: truncated body, %d of %d bytes", ErrCorruptModel, len(stored), h.BodySize)
	}
	return decodeArtifact(ctx, h, stored, o)
}

// LoadBytes decodes an artifact held in memory. The result does not alias
// data, so data may be unmapped or reused afterwards.
func LoadBytes(ctx context.Context, data []byte, opts ...Option) (*tfidf.Model, error) {
	o := applyOptions(opts)
	if len(data) < HeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptModel, len(data))
	}
	h, err := ReadHeader(bytes.NewReader(data[:HeaderSize]))
	if err != nil {
		return nil, err
	}
	body := data[HeaderSize:]
	if uint64(len(body)) != h.BodySize {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorruptModel, len(body), h.BodySize)
	}
	return decodeArtifact(ctx, h, body, o)
}

// SaveFile writes m to path atomically: the artifact goes to a temporary
// file in the same directory which is synced and renamed over path.
func SaveFile(ctx context.Context, path string, m *tfidf.Model, opts ...Option) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	_ = tmp.Chmod(0o644)

	buf := bufio.NewWriterSize(tmp, 256*1024)
	if _, err := Save(ctx, buf, m, opts...); err != nil {
		return err
	}
	if err := buf.Flush(); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	// Best effort: make the rename durable.
	if d, err := os.Open(dir); err == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

// LoadFile memory-maps path and decodes it.
func LoadFile(ctx context.Context, path string, opts ...Option) (*tfidf.Model, error) {
	o := applyOptions(opts)
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.Close() }()

	_ = m.Advise(mmap.AccessSequential)
	if o.rc != nil {
		if err := o.rc.AcquireIO(ctx, m.Size()); err != nil {
			return nil, err
		}
	}
	return LoadBytes(ctx, m.Bytes(), opts...)
}

// ReadManifest returns the header and manifest of an artifact without
// decoding its sections.
func ReadManifest(data []byte) (*FileHeader, *Manifest, error) {
	if len(data) < HeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorruptModel, len(data))
	}
	h, err := ReadHeader(bytes.NewReader(data[:HeaderSize]))
	if err != nil {
		return nil, nil, err
	}
	raw, err := verifiedBody(h, data[HeaderSize:])
	if err != nil {
		return nil, nil, err
	}
	c, _ := codec.ByName(h.CodecName())
	sr := &sectionReader{data: raw}
	man, err := readManifest(sr, c)
	if err != nil {
		return nil, nil, err
	}
	return h, man, nil
}

func verifiedBody(h *FileHeader, stored []byte) ([]byte, error) {
	if uint64(len(stored)) != h.BodySize {
		return nil, fmt.Errorf("%w: body is %d bytes, header says %d", ErrCorruptModel, len(stored), h.BodySize)
	}
	sum, err := artifactChecksum(*h, stored)
	if err != nil {
		return nil, err
	}
	if sum != h.Checksum {
		return nil, &ChecksumMismatchError{Expected: h.Checksum, Actual: sum}
	}
	return decompress(stored, h.Compression, h.RawSize)
}

func decodeArtifact(ctx context.Context, h *FileHeader, stored []byte, o options) (*tfidf.Model, error) {
	raw, err := verifiedBody(h, stored)
	if err != nil {
		return nil, err
	}
	c, _ := codec.ByName(h.CodecName())
	m, err := decodeBody(raw, c)
	if err != nil {
		return nil, err
	}
	o.logger.DebugContext(ctx, "model loaded",
		"model_id", m.ID, "rows", m.Len(), "terms", len(m.Terms()), "compression", h.Compression.String())
	return m, nil
}

func encodeBody(m *tfidf.Model, c codec.Codec) ([]byte, error) {
	st := m.State()
	man := Manifest{
		ModelID:   st.ID.String(),
		CreatedAt: st.CreatedAt,
		Params:    st.Params,
		Schema:    st.Schema,
		Rows:      st.Matrix.Rows(),
		Terms:     len(st.Terms),
		NNZ:       st.Matrix.NNZ(),
	}
	mb, err := c.Marshal(&man)
	if err != nil {
		return nil, fmt.Errorf("persistence: encode manifest: %w", err)
	}

	var sw sectionWriter
	sw.writeBytes(mb)
	sw.writeStrings(st.Terms)
	sw.write(st.IDF)
	sw.write(st.Matrix.Indptr())
	sw.write(st.Matrix.Indices())
	sw.write(st.Matrix.Data())
	sw.writeStrings(st.IDs)
	sw.writeStrings(st.Contents)
	if sw.err != nil {
		return nil, sw.err
	}
	return sw.buf.Bytes(), nil
}

func readManifest(sr *sectionReader, c codec.Codec) (*Manifest, error) {
	mb := sr.bytes("manifest")
	if sr.err != nil {
		return nil, sr.err
	}
	var man Manifest
	if err := c.Unmarshal(mb, &man); err != nil {
		return nil, fmt.Errorf("%w: manifest: %w", ErrCorruptModel, err)
	}
	if man.Rows < 0 || man.Terms < 0 || man.NNZ < 0 {
		return nil, fmt.Errorf("%w: negative counts rows=%d terms=%d nnz=%d", ErrCorruptModel, man.Rows, man.Terms, man.NNZ)
	}
	return &man, nil
}

func decodeBody(raw []byte, c codec.Codec) (*tfidf.Model, error) {
	sr := &sectionReader{data: raw}
	man, err := readManifest(sr, c)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(man.ModelID)
	if err != nil {
		return nil, fmt.Errorf("%w: model id: %w", ErrCorruptModel, err)
	}

	terms := sr.strings(man.Terms, "terms")
	idf := sr.float32s(man.Terms, "idf")
	indptr := sr.int64s(man.Rows+1, "indptr")
	indices := sr.int32s(man.NNZ, "indices")
	data := sr.float32s(man.NNZ, "data")
	ids := sr.strings(man.Rows, "ids")
	contents := sr.strings(man.Rows, "contents")
	if sr.err != nil {
		return nil, sr.err
	}
	if sr.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptModel, sr.remaining())
	}

	matrix, err := sparse.New(man.Rows, man.Terms, indptr, indices, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	m, err := tfidf.Restore(tfidf.State{
		ID:        id,
		CreatedAt: man.CreatedAt,
		Params:    man.Params,
		Schema:    man.Schema,
		Terms:     terms,
		IDF:       idf,
		Matrix:    matrix,
		IDs:       ids,
		Contents:  contents,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptModel, err)
	}
	return m, nil
}
