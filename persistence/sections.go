package persistence

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// sectionWriter appends little-endian sections to a buffer. The first
// error sticks.
type sectionWriter struct {
	buf bytes.Buffer
	err error
}

func (w *sectionWriter) write(v any) {
	if w.err == nil {
		w.err = binary.Write(&w.buf, binary.LittleEndian, v)
	}
}

func (w *sectionWriter) writeBytes(b []byte) {
	if w.err != nil {
		return
	}
	if uint64(len(b)) > math.MaxUint32 {
		w.err = fmt.Errorf("persistence: %d byte field exceeds uint32", len(b))
		return
	}
	w.write(uint32(len(b)))
	w.buf.Write(b)
}

func (w *sectionWriter) writeStrings(ss []string) {
	for _, s := range ss {
		if w.err != nil {
			return
		}
		if uint64(len(s)) > math.MaxUint32 {
			w.err = fmt.Errorf("persistence: %d byte string exceeds uint32", len(s))
			return
		}
		w.write(uint32(len(s)))
		w.buf.WriteString(s)
	}
}

// sectionReader decodes sections written by sectionWriter. Every read is
// bounds-checked before allocating; the first failure sticks and is
// reported as ErrCorruptModel.
type sectionReader struct {
	data []byte
	off  int
	err  error
}

func (r *sectionReader) fail(format string, args ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s", ErrCorruptModel, fmt.Sprintf(format, args...))
	}
}

func (r *sectionReader) remaining() int { return len(r.data) - r.off }

// take returns the next n*size bytes.
func (r *sectionReader) take(n, size int, what string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > r.remaining()/size {
		r.fail("%s: need %d x %d bytes, %d left", what, n, size, r.remaining())
		return nil
	}
	b := r.data[r.off : r.off+n*size]
	r.off += n * size
	return b
}

func (r *sectionReader) uint32(what string) uint32 {
	b := r.take(1, 4, what)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *sectionReader) bytes(what string) []byte {
	n := r.uint32(what)
	if uint64(n) > uint64(r.remaining()) {
		r.fail("%s: length %d exceeds %d remaining bytes", what, n, r.remaining())
		return nil
	}
	return r.take(int(n), 1, what)
}

func (r *sectionReader) strings(n int, what string) []string {
	if n < 0 || n > r.remaining()/4 {
		r.fail("%s: %d strings cannot fit in %d bytes", what, n, r.remaining())
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = string(r.bytes(what))
		if r.err != nil {
			return nil
		}
	}
	return out
}

func (r *sectionReader) float32s(n int, what string) []float32 {
	b := r.take(n, 4, what)
	if r.err != nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func (r *sectionReader) int32s(n int, what string) []int32 {
	b := r.take(n, 4, what)
	if r.err != nil {
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

func (r *sectionReader) int64s(n int, what string) []int64 {
	b := r.take(n, 8, what)
	if r.err != nil {
		return nil
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out
}
