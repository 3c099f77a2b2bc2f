package faiss

import (
	"fmt"
	"io"
	"slices"

	"github.com/hupe1980/vecexport/index"
	"github.com/hupe1980/vecexport/internal/conv"
)

// Metric is the FAISS MetricType enum.
type Metric int32

const (
	MetricInnerProduct    Metric = 0
	MetricL2              Metric = 1
	MetricL1              Metric = 2
	MetricLinf            Metric = 3
	MetricLp              Metric = 4
	MetricCanberra        Metric = 20
	MetricBrayCurtis      Metric = 21
	MetricJensenShannon   Metric = 22
	MetricJaccard         Metric = 23
	MetricNaNEuclidean    Metric = 24
	MetricABSInnerProduct Metric = 25
)

func (m Metric) String() string {
	switch m {
	case MetricInnerProduct:
		return "IP"
	case MetricL2:
		return "L2"
	case MetricL1:
		return "L1"
	case MetricLinf:
		return "Linf"
	case MetricLp:
		return "Lp"
	case MetricCanberra:
		return "Canberra"
	case MetricBrayCurtis:
		return "BrayCurtis"
	case MetricJensenShannon:
		return "JensenShannon"
	case MetricJaccard:
		return "Jaccard"
	case MetricNaNEuclidean:
		return "NaNEuclidean"
	case MetricABSInnerProduct:
		return "ABSInnerProduct"
	default:
		return fmt.Sprintf("Metric(%d)", int32(m))
	}
}

var (
	supported = []string{"IxF2", "IxFI", "IxFl", "IxSQ", "IHNf", "IHNs", "IxMp", "IxM2"}
	// Recognized so callers get ErrUnsupported rather than an unknown-format error.
	recognized = []string{"IwFl", "IwPQ", "IxPq", "IHNp", "IHN2", "null"}
)

func init() {
	index.Register(index.Format{
		Name:       "faiss",
		Match:      IsFaiss,
		Extensions: []string{".faiss"},
		Read: func(r io.Reader) (index.Index, error) {
			return Read(r)
		},
	})
}

// IsFaiss reports whether header starts with a FAISS index type code.
func IsFaiss(header []byte) bool {
	if len(header) < 4 {
		return false
	}
	h := string(header[:4])
	return slices.Contains(supported, h) || slices.Contains(recognized, h)
}

// header is the common prefix written by FAISS write_index_header.
type header struct {
	dim       int
	ntotal    int
	trained   bool
	metric    Metric
	metricArg float32
}

func (d *decoder) header() header {
	var h header
	h.dim = int(d.int32())
	ntotal := d.int64()
	d.int64() // dummy
	d.int64() // dummy
	h.trained = d.uint8() != 0
	h.metric = Metric(d.int32())
	if h.metric > MetricL2 {
		h.metricArg = d.float32()
	}
	if d.err != nil {
		return h
	}
	if h.dim < 0 || ntotal < 0 || uint64(ntotal) >= maxVectorLen {
		d.err = corruptf("invalid header: d=%d ntotal=%d", h.dim, ntotal)
		return h
	}
	n, err := conv.Int64ToInt(ntotal)
	if err != nil {
		d.err = corruptf("invalid header: %v", err)
		return h
	}
	h.ntotal = n
	return h
}

// Read decodes one FAISS index from r.
func Read(r io.Reader) (index.Index, error) {
	d := newDecoder(r)
	idx, err := d.index()
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func (d *decoder) index() (index.Index, error) {
	h := d.fourcc()
	if d.err != nil {
		return nil, fmt.Errorf("faiss: reading type code: %w", d.err)
	}

	var (
		idx index.Index
		err error
	)
	switch h {
	case "IxF2", "IxFI", "IxFl":
		idx, err = d.flat(h)
	case "IxSQ":
		idx, err = d.scalarQuantizer(h)
	case "IHNf", "IHNs":
		idx, err = d.hnsw(h)
	case "IxMp", "IxM2":
		idx, err = d.idMap(h)
	case "null":
		return nil, &ErrUnsupported{Fourcc: h, Detail: "index has no storage"}
	default:
		return nil, &ErrUnsupported{Fourcc: h}
	}
	if err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	return idx, nil
}
