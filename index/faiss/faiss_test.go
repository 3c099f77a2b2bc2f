package faiss

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecexport/index"
	"github.com/hupe1980/vecexport/internal/conv"
	"github.com/hupe1980/vecexport/internal/f16"
	"github.com/hupe1980/vecexport/testutil"
)

func flatBytes(t *testing.T, metric Metric, rows [][]float32) []byte {
	t.Helper()

	dim := 0
	if len(rows) > 0 {
		dim = len(rows[0])
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFlat(&buf, metric, dim, rows))
	return buf.Bytes()
}

func TestWriteFlat_RoundTrip(t *testing.T) {
	rows := testutil.NewRNG(4711).UniformRangeVectors(16, 8)

	tests := []struct {
		metric Metric
		want   string
	}{
		{MetricL2, "IndexFlatL2"},
		{MetricInnerProduct, "IndexFlatIP"},
		{MetricL1, "IndexFlat"},
	}

	for _, tt := range tests {
		t.Run(tt.metric.String(), func(t *testing.T) {
			idx, err := Read(bytes.NewReader(flatBytes(t, tt.metric, rows)))
			require.NoError(t, err)

			assert.Equal(t, tt.want, idx.Type())
			assert.Equal(t, 16, idx.Len())
			assert.Equal(t, 8, idx.Dimension())

			flat, ok := idx.(*Flat)
			require.True(t, ok)
			assert.Equal(t, tt.metric, flat.Metric())

			got, err := index.ReconstructAll(idx)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestRead_TwoVectors(t *testing.T) {
	rows := [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}}

	idx, err := index.Open(bytes.NewReader(flatBytes(t, MetricL2, rows)))
	require.NoError(t, err)

	assert.Equal(t, "IndexFlatL2", idx.Type())
	got, err := idx.Reconstruct(0, 2)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestWriteFlat_InvalidDimension(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFlat(&buf, MetricL2, -1, nil)
	assert.ErrorIs(t, err, conv.ErrOverflow)
	assert.Zero(t, buf.Len())

	err = WriteFlat(&buf, MetricL2, 3, [][]float32{{1, 2}})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestRead_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFlat(&buf, MetricL2, 4, nil))

	idx, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, 4, idx.Dimension())

	rows, err := index.ReconstructAll(idx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRead_Truncated(t *testing.T) {
	data := flatBytes(t, MetricL2, testutil.NewRNG(1).UniformVectors(4, 4))

	for _, n := range []int{2, 10, 30, len(data) - 1} {
		_, err := Read(bytes.NewReader(data[:n]))
		require.Error(t, err)
		assert.True(t, errors.Is(err, io.ErrUnexpectedEOF), "cut at %d: %v", n, err)
	}
}

func TestRead_FloatCountMismatch(t *testing.T) {
	var buf bytes.Buffer
	e := newEncoder(&buf)
	e.fourcc("IxF2")
	e.header(3, 2, MetricL2)
	e.floats([]float32{1, 2, 3, 4, 5})
	require.NoError(t, e.flush())

	_, err := Read(&buf)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRead_LengthLimit(t *testing.T) {
	var buf bytes.Buffer
	e := newEncoder(&buf)
	e.fourcc("IxSQ")
	e.header(2, 1, MetricL2)
	e.int32(int32(QTFP16))
	e.int32(0)
	e.float32(0)
	e.uint64(2)
	e.uint64(4)
	e.uint64(maxVectorLen)
	require.NoError(t, e.flush())

	_, err := Read(&buf)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestRead_SizeOverflow(t *testing.T) {
	t.Run("flat", func(t *testing.T) {
		var buf bytes.Buffer
		e := newEncoder(&buf)
		e.fourcc("IxF2")
		e.header(1<<25, 1<<39, MetricL2)
		e.uint64(0)
		require.NoError(t, e.flush())

		_, err := Read(&buf)
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("scalar quantizer", func(t *testing.T) {
		_, err := Read(bytes.NewReader(sqBytes(t, QTFP16, 1<<24, 1<<39, nil, nil)))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("zero dimension", func(t *testing.T) {
		_, err := Read(bytes.NewReader(sqBytes(t, QT8bitDirect, 0, 1<<30, nil, nil)))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestRead_Unsupported(t *testing.T) {
	for _, h := range []string{"IwFl", "null"} {
		assert.True(t, IsFaiss([]byte(h)))

		_, err := Read(bytes.NewReader([]byte(h + "\x00\x00\x00\x00")))
		var unsupported *ErrUnsupported
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, h, unsupported.Fourcc)
	}

	assert.False(t, IsFaiss([]byte("PK\x03\x04")))
	assert.False(t, IsFaiss([]byte("Ix")))
}

func sqBytes(t *testing.T, qtype QuantizerType, dim, ntotal int, trained []float32, codes []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	e := newEncoder(&buf)
	e.fourcc("IxSQ")
	e.header(dim, ntotal, MetricL2)
	e.int32(int32(qtype))
	e.int32(0)
	e.float32(0)
	e.uint64(uint64(dim))
	e.uint64(uint64(max(qtype.codeSize(dim), 0)))
	e.floats(trained)
	e.uint64(uint64(len(codes)))
	e.write(codes)
	require.NoError(t, e.flush())
	return buf.Bytes()
}

func le16(vals ...uint16) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = le.AppendUint16(out, v)
	}
	return out
}

func TestScalarQuantizer_Decode(t *testing.T) {
	tests := []struct {
		name    string
		qtype   QuantizerType
		dim     int
		trained []float32
		codes   []byte
		want    [][]float32
	}{
		{
			name:  "fp16",
			qtype: QTFP16,
			dim:   3,
			codes: le16(
				uint16(f16.FromFloat32(1)), uint16(f16.FromFloat32(-2)), uint16(f16.FromFloat32(0.5)),
				uint16(f16.FromFloat32(0)), uint16(f16.FromFloat32(0.25)), uint16(f16.FromFloat32(8)),
			),
			want: [][]float32{{1, -2, 0.5}, {0, 0.25, 8}},
		},
		{
			name:  "bf16",
			qtype: QTBF16,
			dim:   2,
			codes: le16(0x3f80, 0xc000),
			want:  [][]float32{{1, -2}},
		},
		{
			name:  "8bit_direct",
			qtype: QT8bitDirect,
			dim:   3,
			codes: []byte{0, 7, 255},
			want:  [][]float32{{0, 7, 255}},
		},
		{
			name:  "8bit_direct_signed",
			qtype: QT8bitDirectSigned,
			dim:   3,
			codes: []byte{0, 128, 255},
			want:  [][]float32{{-128, 0, 127}},
		},
		{
			name:    "8bit_uniform",
			qtype:   QT8bitUniform,
			dim:     2,
			trained: []float32{-1, 2},
			codes:   []byte{0, 254},
			want:    [][]float32{{-1 + (0.5/255)*2, -1 + (254.5/255)*2}},
		},
		{
			name:    "8bit",
			qtype:   QT8bit,
			dim:     2,
			trained: []float32{0, 10, 1, 2},
			codes:   []byte{0, 255},
			want:    [][]float32{{0.5 / 255, 10 + (255.5/255)*2}},
		},
		{
			name:    "4bit",
			qtype:   QT4bit,
			dim:     3,
			trained: []float32{0, 0, 0, 1, 1, 1},
			codes:   []byte{0xf0, 0x07},
			want:    [][]float32{{0.5 / 15, 15.5 / 15, 7.5 / 15}},
		},
		{
			name:    "4bit_uniform",
			qtype:   QT4bitUniform,
			dim:     2,
			trained: []float32{1, 3},
			codes:   []byte{0x10},
			want:    [][]float32{{1 + (0.5/15)*3, 1 + (1.5/15)*3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := sqBytes(t, tt.qtype, tt.dim, len(tt.want), tt.trained, tt.codes)
			idx, err := Read(bytes.NewReader(data))
			require.NoError(t, err)

			assert.Equal(t, "IndexScalarQuantizer("+tt.qtype.String()+")", idx.Type())
			assert.Equal(t, len(tt.want), idx.Len())
			assert.Equal(t, tt.dim, idx.Dimension())

			got, err := index.ReconstructAll(idx)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDeltaSlice(t, tt.want[i], got[i], 1e-5)
			}
		})
	}
}

func TestScalarQuantizer_PartialRange(t *testing.T) {
	data := sqBytes(t, QT8bitDirect, 2, 3, nil, []byte{1, 2, 3, 4, 5, 6})
	idx, err := Read(bytes.NewReader(data))
	require.NoError(t, err)

	rows, err := idx.Reconstruct(1, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{3, 4}, {5, 6}}, rows)

	_, err = idx.Reconstruct(2, 2)
	var oob *index.ErrRangeOutOfBounds
	assert.ErrorAs(t, err, &oob)
}

func TestScalarQuantizer_Invalid(t *testing.T) {
	t.Run("6bit", func(t *testing.T) {
		_, err := Read(bytes.NewReader(sqBytes(t, QT6bit, 4, 1, nil, []byte{1, 2, 3})))
		var unsupported *ErrUnsupported
		require.ErrorAs(t, err, &unsupported)
		assert.Contains(t, unsupported.Detail, "QT_6bit")
	})

	t.Run("short codes", func(t *testing.T) {
		_, err := Read(bytes.NewReader(sqBytes(t, QT8bitDirect, 4, 2, nil, []byte{1, 2, 3, 4})))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("missing trained", func(t *testing.T) {
		_, err := Read(bytes.NewReader(sqBytes(t, QT8bit, 2, 1, []float32{0}, []byte{1, 2})))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func writeHNSWGraph(e *encoder, ntotal int) {
	e.uint64(2)
	e.write(make([]byte, 16))
	e.uint64(3)
	e.int32(0)
	e.int32(32)
	e.int32(48)
	e.uint64(uint64(ntotal))
	for range ntotal {
		e.int32(1)
	}
	e.uint64(uint64(ntotal + 1))
	for i := range ntotal + 1 {
		e.uint64(uint64(i * 32))
	}
	e.uint64(uint64(ntotal * 32))
	for range ntotal * 32 {
		e.int32(-1)
	}
	e.int32(0)  // entry point
	e.int32(0)  // max level
	e.int32(40) // efConstruction
	e.int32(16) // efSearch
	e.int32(1)  // upper beam
}

func TestHNSW(t *testing.T) {
	rows := testutil.NewRNG(7).UnitVectors(5, 4)

	var buf bytes.Buffer
	e := newEncoder(&buf)
	e.fourcc("IHNf")
	e.header(4, 5, MetricInnerProduct)
	writeHNSWGraph(e, 5)
	require.NoError(t, e.flush())
	require.NoError(t, WriteFlat(&buf, MetricInnerProduct, 4, rows))

	idx, err := index.Open(&buf)
	require.NoError(t, err)

	assert.Equal(t, "IndexHNSWFlat", idx.Type())
	h, ok := idx.(*HNSW)
	require.True(t, ok)
	assert.Equal(t, "IndexFlatIP", h.Storage().Type())
	assert.Equal(t, int32(40), h.EfConstruction())
	assert.Equal(t, int32(16), h.EfSearch())
	assert.Equal(t, int32(0), h.EntryPoint())

	got, err := index.ReconstructAll(idx)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestHNSW_StorageMismatch(t *testing.T) {
	var buf bytes.Buffer
	e := newEncoder(&buf)
	e.fourcc("IHNs")
	e.header(4, 3, MetricL2)
	writeHNSWGraph(e, 3)
	require.NoError(t, e.flush())
	require.NoError(t, WriteFlat(&buf, MetricL2, 4, testutil.NewRNG(7).UniformVectors(2, 4)))

	_, err := Read(&buf)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func idMapBytes(t *testing.T, fourcc string, rows [][]float32, ids []int64) []byte {
	t.Helper()

	var buf bytes.Buffer
	e := newEncoder(&buf)
	e.fourcc(fourcc)
	e.header(len(rows[0]), len(rows), MetricL2)
	require.NoError(t, e.flush())
	require.NoError(t, WriteFlat(&buf, MetricL2, len(rows[0]), rows))

	e = newEncoder(&buf)
	e.uint64(uint64(len(ids)))
	for _, id := range ids {
		e.int64(id)
	}
	require.NoError(t, e.flush())
	return buf.Bytes()
}

func TestIDMap(t *testing.T) {
	rng := testutil.NewRNG(42)
	rows := rng.UniformVectors(6, 3)
	ids := rng.IDs(6)

	tests := []struct {
		fourcc string
		want   string
	}{
		{"IxMp", "IndexIDMap(IndexFlatL2)"},
		{"IxM2", "IndexIDMap2(IndexFlatL2)"},
	}

	for _, tt := range tests {
		t.Run(tt.fourcc, func(t *testing.T) {
			idx, err := Read(bytes.NewReader(idMapBytes(t, tt.fourcc, rows, ids)))
			require.NoError(t, err)

			assert.Equal(t, tt.want, idx.Type())
			mapper, ok := idx.(index.IDMapper)
			require.True(t, ok)
			assert.Equal(t, ids, mapper.IDs())
			assert.Equal(t, len(ids), mapper.DistinctIDs())

			got, err := index.ReconstructAll(idx)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestIDMap_RepeatedIDs(t *testing.T) {
	rows := testutil.NewRNG(42).UniformVectors(3, 2)

	for _, fourcc := range []string{"IxMp", "IxM2"} {
		t.Run(fourcc, func(t *testing.T) {
			idx, err := Read(bytes.NewReader(idMapBytes(t, fourcc, rows, []int64{5, 9, 5})))
			require.NoError(t, err)

			m := idx.(*IDMap)
			assert.Equal(t, []int64{5, 9, 5}, m.IDs())
			assert.Equal(t, 2, m.DistinctIDs())

			got, err := index.ReconstructAll(idx)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
}

func TestIDMap_Invalid(t *testing.T) {
	rows := testutil.NewRNG(42).UniformVectors(3, 2)

	t.Run("id count", func(t *testing.T) {
		_, err := Read(bytes.NewReader(idMapBytes(t, "IxMp", rows, []int64{1, 2})))
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestWriteIDMap(t *testing.T) {
	rows := [][]float32{{1, 2}, {3, 4}}

	var buf bytes.Buffer
	require.NoError(t, WriteIDMap(&buf, MetricInnerProduct, 2, rows, []int64{100, 7}))

	idx, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "IndexIDMap(IndexFlatIP)", idx.Type())
	assert.Equal(t, []int64{100, 7}, idx.(*IDMap).IDs())
	assert.Equal(t, MetricInnerProduct, idx.(*IDMap).Metric())

	assert.Error(t, WriteIDMap(&buf, MetricL2, 2, rows, []int64{1}))
}
