// Package fvecs reads TEXMEX .fvecs files: a sequence of records, each an
// int32 dimension followed by that many float32 values, little-endian.
//
// The format has no magic, so it is registered for the ".fvecs" extension
// only.
package fvecs

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/vecexport/index"
	"github.com/hupe1980/vecexport/internal/conv"
)

// TypeName is reported by Index.Type for fvecs files.
const TypeName = "fvecs"

// MaxDimension bounds the per-record dimension accepted by Read.
const MaxDimension = 1 << 16

// ErrCorrupt is returned for malformed files.
var ErrCorrupt = errors.New("fvecs: corrupt file")

func init() {
	index.Register(index.Format{
		Name:       "fvecs",
		Extensions: []string{".fvecs"},
		Read:       Read,
	})
}

// Read decodes every record in r.
func Read(r io.Reader) (index.Index, error) {
	br := bufio.NewReaderSize(r, 1<<16)

	var (
		dim  int
		data []float32
		hdr  [4]byte
		rec  []byte
	)
	for n := 0; ; n++ {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("fvecs: record %d: %w", n, err)
		}

		d := int32(binary.LittleEndian.Uint32(hdr[:]))
		if d <= 0 || d > MaxDimension {
			return nil, fmt.Errorf("%w: record %d has dimension %d", ErrCorrupt, n, d)
		}
		if n == 0 {
			dim = int(d)
			rec = make([]byte, 4*dim)
		} else if int(d) != dim {
			return nil, fmt.Errorf("%w: record %d has dimension %d, want %d", ErrCorrupt, n, d, dim)
		}

		if _, err := io.ReadFull(br, rec); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("fvecs: record %d: %w", n, err)
		}
		for i := range dim {
			data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(rec[4*i:])))
		}
	}

	return index.NewMemory(TypeName, dim, data)
}

// Write encodes rows as .fvecs records. All rows must share one length.
func Write(w io.Writer, rows [][]float32) error {
	bw := bufio.NewWriter(w)
	var buf [4]byte
	for i, r := range rows {
		if len(r) != len(rows[0]) || len(r) == 0 {
			return fmt.Errorf("fvecs: row %d has %d values", i, len(r))
		}
		d, err := conv.IntToInt32(len(r))
		if err != nil {
			return fmt.Errorf("fvecs: row %d: %w", i, err)
		}
		binary.LittleEndian.PutUint32(buf[:], uint32(d))
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
		for _, v := range r {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
