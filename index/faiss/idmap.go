package faiss

import (
	"fmt"
	"io"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/vecexport/index"
)

// IDMap is a FAISS IndexIDMap or IndexIDMap2: a nested index plus the
// external id of every stored vector. Reconstruction follows the nested
// index's internal order; IDs()[i] labels row i.
type IDMap struct {
	index.Index
	typ    string
	metric   Metric
	ids      []int64
	distinct int
}

var _ index.IDMapper = (*IDMap)(nil)

// Type implements index.Index.
func (m *IDMap) Type() string { return m.typ }

// Metric returns the distance the index was built for.
func (m *IDMap) Metric() Metric { return m.metric }

// Inner returns the wrapped index.
func (m *IDMap) Inner() index.Index { return m.Index }

// IDs implements index.IDMapper.
func (m *IDMap) IDs() []int64 { return m.ids }

// DistinctIDs implements index.IDMapper.
func (m *IDMap) DistinctIDs() int { return m.distinct }

func (d *decoder) idMap(h string) (*IDMap, error) {
	hdr := d.header()
	if d.err != nil {
		return nil, d.err
	}

	inner, err := d.index()
	if err != nil {
		return nil, err
	}
	ids := d.int64s("id_map")
	if d.err != nil {
		return nil, d.err
	}

	if inner.Len() != hdr.ntotal {
		return nil, corruptf("%s: inner index holds %d vectors, header says %d", h, inner.Len(), hdr.ntotal)
	}
	if len(ids) != hdr.ntotal {
		return nil, corruptf("%s: %d ids for %d vectors", h, len(ids), hdr.ntotal)
	}

	// Ids may repeat; only the distinct count is tracked.
	seen := roaring64.New()
	for _, id := range ids {
		seen.Add(uint64(id))
	}

	name := "IndexIDMap"
	if h == "IxM2" {
		name = "IndexIDMap2"
	}
	return &IDMap{
		Index:  inner,
		typ:    name + "(" + inner.Type() + ")",
		metric:   hdr.metric,
		ids:      ids,
		distinct: int(seen.GetCardinality()),
	}, nil
}

// WriteIDMap writes rows as an IndexIDMap over a flat index, labelling row
// i with ids[i].
func WriteIDMap(w io.Writer, metric Metric, dim int, rows [][]float32, ids []int64) error {
	if len(ids) != len(rows) {
		return fmt.Errorf("faiss: %d ids for %d rows", len(ids), len(rows))
	}

	e := newEncoder(w)
	e.fourcc("IxMp")
	e.header(dim, len(rows), metric)
	if err := e.flush(); err != nil {
		return err
	}
	if err := WriteFlat(w, metric, dim, rows); err != nil {
		return err
	}

	e = newEncoder(w)
	e.uint64(uint64(len(ids)))
	for _, id := range ids {
		e.int64(id)
	}
	return e.flush()
}
