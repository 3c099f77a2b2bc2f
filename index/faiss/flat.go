package faiss

import (
	"fmt"
	"io"

	"github.com/hupe1980/vecexport/index"
	"github.com/hupe1980/vecexport/internal/conv"
)

// Flat is an uncompressed FAISS index: vectors are stored verbatim.
type Flat struct {
	*index.Memory
	metric    Metric
	metricArg float32
}

// Metric returns the distance the index was built for.
func (f *Flat) Metric() Metric { return f.metric }

func flatTypeName(h string) string {
	switch h {
	case "IxF2":
		return "IndexFlatL2"
	case "IxFI":
		return "IndexFlatIP"
	default:
		return "IndexFlat"
	}
}

func (d *decoder) flat(h string) (*Flat, error) {
	hdr := d.header()
	// Codes are prefixed by their float count, not their byte count.
	n := d.length("codes")
	if d.err != nil {
		return nil, d.err
	}
	want, err := conv.MulInt(hdr.ntotal, hdr.dim)
	if err != nil {
		return nil, corruptf("%s: %d vectors of dimension %d: %v", h, hdr.ntotal, hdr.dim, err)
	}
	if n != want {
		return nil, corruptf("%s: %d floats for %d vectors of dimension %d", h, n, hdr.ntotal, hdr.dim)
	}

	raw := d.raw("codes", d.size("codes", n, 4))
	if d.err != nil {
		return nil, d.err
	}
	data := make([]float32, n)
	decodeFloats(data, raw)

	mem, err := index.NewMemory(flatTypeName(h), hdr.dim, data)
	if err != nil {
		return nil, corruptf("%s: %v", h, err)
	}
	if hdr.dim == 0 && hdr.ntotal > 0 {
		return nil, corruptf("%s: %d vectors of dimension 0", h, hdr.ntotal)
	}
	return &Flat{Memory: mem, metric: hdr.metric, metricArg: hdr.metricArg}, nil
}

// WriteFlat writes rows as a FAISS flat index. L2 and inner-product metrics
// produce IndexFlatL2 and IndexFlatIP files; other metrics produce IndexFlat.
func WriteFlat(w io.Writer, metric Metric, dim int, rows [][]float32) error {
	if _, err := conv.IntToInt32(dim); err != nil {
		return fmt.Errorf("faiss: dimension: %w", err)
	}
	for i, r := range rows {
		if len(r) != dim {
			return fmt.Errorf("faiss: row %d has %d values, want %d", i, len(r), dim)
		}
	}

	e := newEncoder(w)
	switch metric {
	case MetricL2:
		e.fourcc("IxF2")
	case MetricInnerProduct:
		e.fourcc("IxFI")
	default:
		e.fourcc("IxFl")
	}
	e.header(dim, len(rows), metric)
	e.uint64(uint64(len(rows) * dim))
	for _, r := range rows {
		for _, v := range r {
			e.float32(v)
		}
	}
	return e.flush()
}

func (e *encoder) header(dim, ntotal int, metric Metric) {
	const dummy = 1 << 20
	e.int32(int32(dim))
	e.int64(int64(ntotal))
	e.int64(dummy)
	e.int64(dummy)
	e.uint8(1)
	e.int32(int32(metric))
	if metric > MetricL2 {
		e.float32(0)
	}
}
