package faiss

import (
	"github.com/hupe1980/vecexport/index"
)

// HNSW is a FAISS IndexHNSW. The graph is skipped while reading; vectors
// come from the nested storage index.
type HNSW struct {
	index.Index
	typ            string
	metric         Metric
	entryPoint     int32
	maxLevel       int32
	efConstruction int32
	efSearch       int32
}

// Type implements index.Index.
func (h *HNSW) Type() string { return h.typ }

// Metric returns the distance the index was built for.
func (h *HNSW) Metric() Metric { return h.metric }

// Storage returns the index holding the vectors.
func (h *HNSW) Storage() index.Index { return h.Index }

// EntryPoint returns the graph entry node, or -1 for an empty graph.
func (h *HNSW) EntryPoint() int32 { return h.entryPoint }

// MaxLevel returns the highest graph layer.
func (h *HNSW) MaxLevel() int32 { return h.maxLevel }

// EfConstruction returns the build-time candidate list size.
func (h *HNSW) EfConstruction() int32 { return h.efConstruction }

// EfSearch returns the default query-time candidate list size.
func (h *HNSW) EfSearch() int32 { return h.efSearch }

func hnswTypeName(fourcc string) string {
	if fourcc == "IHNs" {
		return "IndexHNSWSQ"
	}
	return "IndexHNSWFlat"
}

func (d *decoder) hnsw(h string) (*HNSW, error) {
	hdr := d.header()

	d.skip("assign_probas", 8)
	d.skip("cum_nneighbor_per_level", 4)
	d.skip("levels", 4)
	d.skip("offsets", 8)
	d.skip("neighbors", 4)

	out := &HNSW{typ: hnswTypeName(h), metric: hdr.metric}
	out.entryPoint = d.int32()
	out.maxLevel = d.int32()
	out.efConstruction = d.int32()
	out.efSearch = d.int32()
	d.int32() // upper_beam
	if d.err != nil {
		return nil, d.err
	}

	storage, err := d.index()
	if err != nil {
		return nil, err
	}
	if storage.Len() != hdr.ntotal || storage.Dimension() != hdr.dim {
		return nil, corruptf("%s: storage holds %d×%d, header says %d×%d",
			h, storage.Len(), storage.Dimension(), hdr.ntotal, hdr.dim)
	}
	out.Index = storage
	return out, nil
}
