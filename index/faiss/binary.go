package faiss

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/vecexport/internal/conv"
)

// maxVectorLen mirrors the sanity bound FAISS applies to serialized vectors.
const maxVectorLen = uint64(1) << 40

var le = binary.LittleEndian

// decoder reads FAISS primitives and remembers the first error, so a run of
// reads can be checked once.
type decoder struct {
	r   *bufio.Reader
	buf [8]byte
	err error
}

func newDecoder(r io.Reader) *decoder {
	if br, ok := r.(*bufio.Reader); ok {
		return &decoder{r: br}
	}
	return &decoder{r: bufio.NewReaderSize(r, 1<<16)}
}

func (d *decoder) read(n int) []byte {
	if d.err != nil {
		return d.buf[:n]
	}
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		d.err = err
	}
	return d.buf[:n]
}

func (d *decoder) fourcc() string { return string(d.read(4)) }
func (d *decoder) uint8() uint8   { return d.read(1)[0] }
func (d *decoder) int32() int32   { return int32(le.Uint32(d.read(4))) }
func (d *decoder) int64() int64   { return int64(le.Uint64(d.read(8))) }
func (d *decoder) uint64() uint64 { return le.Uint64(d.read(8)) }
func (d *decoder) float32() float32 {
	return math.Float32frombits(le.Uint32(d.read(4)))
}

// length reads a size_t element count and applies the FAISS sanity bound.
func (d *decoder) length(what string) int {
	n := d.uint64()
	if d.err != nil {
		return 0
	}
	if n >= maxVectorLen {
		d.err = corruptf("%s length %d exceeds limit", what, n)
		return 0
	}
	v, err := conv.Uint64ToInt(n)
	if err != nil {
		d.err = corruptf("%s length: %v", what, err)
	}
	return v
}

// bytes reads a length-prefixed vector of elemSize-byte elements and returns
// its raw bytes.
func (d *decoder) bytes(what string, elemSize int) []byte {
	n := d.length(what)
	if d.err != nil {
		return nil
	}
	return d.raw(what, d.size(what, n, elemSize))
}

// size returns n*elemSize, failing the decoder if the byte count overflows.
func (d *decoder) size(what string, n, elemSize int) int {
	if d.err != nil {
		return 0
	}
	v, err := conv.MulInt(n, elemSize)
	if err != nil {
		d.err = corruptf("%s size: %v", what, err)
	}
	return v
}

func (d *decoder) raw(what string, n int) []byte {
	if d.err != nil {
		return nil
	}
	// Grow incrementally so a corrupt length fails on EOF instead of
	// allocating the claimed size up front.
	var buf bytes.Buffer
	buf.Grow(min(n, 1<<26))
	if _, err := io.CopyN(&buf, d.r, int64(n)); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		d.err = fmt.Errorf("faiss: reading %s: %w", what, err)
		return nil
	}
	return buf.Bytes()
}

func (d *decoder) floats(what string) []float32 {
	b := d.bytes(what, 4)
	if d.err != nil {
		return nil
	}
	out := make([]float32, len(b)/4)
	decodeFloats(out, b)
	return out
}

func (d *decoder) int64s(what string) []int64 {
	b := d.bytes(what, 8)
	if d.err != nil {
		return nil
	}
	out := make([]int64, len(b)/8)
	for i := range out {
		out[i] = int64(le.Uint64(b[8*i:]))
	}
	return out
}

// skip discards a length-prefixed vector of elemSize-byte elements.
func (d *decoder) skip(what string, elemSize int) {
	n := d.size(what, d.length(what), elemSize)
	if d.err != nil {
		return
	}
	if _, err := d.r.Discard(n); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		d.err = fmt.Errorf("faiss: skipping %s: %w", what, err)
	}
}

func decodeFloats(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = math.Float32frombits(le.Uint32(src[4*i:]))
	}
}

// encoder mirrors decoder for the subset of the format we write.
type encoder struct {
	w   *bufio.Writer
	buf [8]byte
	err error
}

func newEncoder(w io.Writer) *encoder {
	return &encoder{w: bufio.NewWriterSize(w, 1<<16)}
}

func (e *encoder) write(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) fourcc(s string) { e.write([]byte(s)) }
func (e *encoder) uint8(v uint8)   { e.buf[0] = v; e.write(e.buf[:1]) }
func (e *encoder) int32(v int32)   { le.PutUint32(e.buf[:4], uint32(v)); e.write(e.buf[:4]) }
func (e *encoder) int64(v int64)   { le.PutUint64(e.buf[:8], uint64(v)); e.write(e.buf[:8]) }
func (e *encoder) uint64(v uint64) { le.PutUint64(e.buf[:8], v); e.write(e.buf[:8]) }
func (e *encoder) float32(v float32) {
	le.PutUint32(e.buf[:4], math.Float32bits(v))
	e.write(e.buf[:4])
}

func (e *encoder) floats(v []float32) {
	e.uint64(uint64(len(v)))
	for _, f := range v {
		e.float32(f)
	}
}

func (e *encoder) flush() error {
	if e.err != nil {
		return e.err
	}
	return e.w.Flush()
}
