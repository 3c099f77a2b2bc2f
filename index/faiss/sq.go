package faiss

import (
	"fmt"

	"github.com/hupe1980/vecexport/index"
	"github.com/hupe1980/vecexport/internal/conv"
	"github.com/hupe1980/vecexport/internal/f16"
)

// QuantizerType is the FAISS ScalarQuantizer::QuantizerType enum.
type QuantizerType int32

const (
	QT8bit             QuantizerType = 0
	QT4bit             QuantizerType = 1
	QT8bitUniform      QuantizerType = 2
	QT4bitUniform      QuantizerType = 3
	QTFP16             QuantizerType = 4
	QT8bitDirect       QuantizerType = 5
	QT6bit             QuantizerType = 6
	QTBF16             QuantizerType = 7
	QT8bitDirectSigned QuantizerType = 8
)

func (q QuantizerType) String() string {
	switch q {
	case QT8bit:
		return "QT_8bit"
	case QT4bit:
		return "QT_4bit"
	case QT8bitUniform:
		return "QT_8bit_uniform"
	case QT4bitUniform:
		return "QT_4bit_uniform"
	case QTFP16:
		return "QT_fp16"
	case QT8bitDirect:
		return "QT_8bit_direct"
	case QT6bit:
		return "QT_6bit"
	case QTBF16:
		return "QT_bf16"
	case QT8bitDirectSigned:
		return "QT_8bit_direct_signed"
	default:
		return fmt.Sprintf("QT(%d)", int32(q))
	}
}

// codeSize returns the bytes per encoded vector, or -1 if q is not decodable.
func (q QuantizerType) codeSize(dim int) int {
	switch q {
	case QT8bit, QT8bitUniform, QT8bitDirect, QT8bitDirectSigned:
		return dim
	case QT4bit, QT4bitUniform:
		return (dim + 1) / 2
	case QTFP16, QTBF16:
		return 2 * dim
	default:
		return -1
	}
}

// trainedLen returns the number of trained floats q needs.
func (q QuantizerType) trainedLen(dim int) int {
	switch q {
	case QT8bit, QT4bit:
		return 2 * dim
	case QT8bitUniform, QT4bitUniform:
		return 2
	default:
		return 0
	}
}

// ScalarQuantizer is a FAISS IndexScalarQuantizer. Vectors are decoded on
// demand, so reconstruction returns approximations of the original values.
type ScalarQuantizer struct {
	dim      int
	ntotal   int
	metric   Metric
	qtype    QuantizerType
	codeSize int
	trained  []float32
	codes    []byte
}

// Len implements index.Index.
func (s *ScalarQuantizer) Len() int { return s.ntotal }

// Dimension implements index.Index.
func (s *ScalarQuantizer) Dimension() int { return s.dim }

// Type implements index.Index.
func (s *ScalarQuantizer) Type() string {
	return "IndexScalarQuantizer(" + s.qtype.String() + ")"
}

// Metric returns the distance the index was built for.
func (s *ScalarQuantizer) Metric() Metric { return s.metric }

// QuantizerType returns the code layout.
func (s *ScalarQuantizer) QuantizerType() QuantizerType { return s.qtype }

// Reconstruct implements index.Index.
func (s *ScalarQuantizer) Reconstruct(start, count int) ([][]float32, error) {
	if err := index.CheckRange(start, count, s.ntotal); err != nil {
		return nil, err
	}

	data := make([]float32, count*s.dim)
	rows := make([][]float32, count)
	for i := range rows {
		row := data[i*s.dim : (i+1)*s.dim : (i+1)*s.dim]
		off := (start + i) * s.codeSize
		s.decode(row, s.codes[off:off+s.codeSize])
		rows[i] = row
	}
	return rows, nil
}

func (s *ScalarQuantizer) decode(dst []float32, code []byte) {
	switch s.qtype {
	case QT8bit, QT8bitUniform:
		for i := range dst {
			dst[i] = s.scale(i, (float32(code[i])+0.5)/255)
		}
	case QT4bit, QT4bitUniform:
		for i := range dst {
			nib := (code[i/2] >> ((i & 1) * 4)) & 0x0f
			dst[i] = s.scale(i, (float32(nib)+0.5)/15)
		}
	case QTFP16:
		f16.DecodeLE(dst, code)
	case QTBF16:
		f16.DecodeBFloat16LE(dst, code)
	case QT8bitDirect:
		for i := range dst {
			dst[i] = float32(code[i])
		}
	case QT8bitDirectSigned:
		for i := range dst {
			dst[i] = float32(int(code[i]) - 128)
		}
	}
}

// scale maps a unit value back into the trained range of component i.
func (s *ScalarQuantizer) scale(i int, unit float32) float32 {
	if s.qtype == QT8bitUniform || s.qtype == QT4bitUniform {
		return s.trained[0] + unit*s.trained[1]
	}
	return s.trained[i] + unit*s.trained[s.dim+i]
}

func (d *decoder) readQuantizer(h string, hdr header) (*ScalarQuantizer, error) {
	qtype := QuantizerType(d.int32())
	d.int32()   // rangestat
	d.float32() // rangestat_arg
	sqDim := d.uint64()
	codeSize := d.uint64()
	trained := d.floats("trained")
	if d.err != nil {
		return nil, d.err
	}

	want := qtype.codeSize(hdr.dim)
	if want < 0 {
		return nil, &ErrUnsupported{Fourcc: h, Detail: "quantizer " + qtype.String()}
	}
	if sqDim != uint64(hdr.dim) {
		return nil, corruptf("%s: quantizer dimension %d, index dimension %d", h, sqDim, hdr.dim)
	}
	if codeSize != uint64(want) {
		return nil, corruptf("%s: code size %d, want %d for %s", h, codeSize, want, qtype)
	}
	if n := qtype.trainedLen(hdr.dim); len(trained) < n {
		return nil, corruptf("%s: %d trained values, want %d", h, len(trained), n)
	}

	return &ScalarQuantizer{
		dim:      hdr.dim,
		ntotal:   hdr.ntotal,
		metric:   hdr.metric,
		qtype:    qtype,
		codeSize: want,
		trained:  trained,
	}, nil
}

func (d *decoder) scalarQuantizer(h string) (*ScalarQuantizer, error) {
	hdr := d.header()
	if d.err != nil {
		return nil, d.err
	}
	sq, err := d.readQuantizer(h, hdr)
	if err != nil {
		return nil, err
	}
	if hdr.dim == 0 && hdr.ntotal > 0 {
		return nil, corruptf("%s: %d vectors of dimension 0", h, hdr.ntotal)
	}

	codes := d.bytes("codes", 1)
	if d.err != nil {
		return nil, d.err
	}
	want, err := conv.MulInt(sq.ntotal, sq.codeSize)
	if err != nil {
		return nil, corruptf("%s: %d vectors of %d bytes: %v", h, sq.ntotal, sq.codeSize, err)
	}
	if len(codes) != want {
		return nil, corruptf("%s: %d code bytes for %d vectors of %d bytes", h, len(codes), sq.ntotal, sq.codeSize)
	}
	sq.codes = codes
	return sq, nil
}
