package index

import "fmt"

// Memory is an Index over a row-major float32 matrix held in memory.
type Memory struct {
	typ  string
	dim  int
	data []float32
}

// NewMemory wraps data, which must hold a whole number of dim-sized rows.
func NewMemory(typ string, dim int, data []float32) (*Memory, error) {
	if dim <= 0 {
		if len(data) != 0 {
			return nil, fmt.Errorf("index: dimension %d with %d values", dim, len(data))
		}
		dim = 0
	} else if len(data)%dim != 0 {
		return nil, fmt.Errorf("index: %d values is not a multiple of dimension %d", len(data), dim)
	}
	return &Memory{typ: typ, dim: dim, data: data}, nil
}

// FromRows copies rows into a new Memory index. All rows must share one length.
func FromRows(typ string, rows [][]float32) (*Memory, error) {
	if len(rows) == 0 {
		return &Memory{typ: typ}, nil
	}
	dim := len(rows[0])
	data := make([]float32, 0, len(rows)*dim)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("index: row %d has %d values, want %d", i, len(r), dim)
		}
		data = append(data, r...)
	}
	return NewMemory(typ, dim, data)
}

// Len implements Index.
func (m *Memory) Len() int {
	if m.dim == 0 {
		return 0
	}
	return len(m.data) / m.dim
}

// Dimension implements Index.
func (m *Memory) Dimension() int { return m.dim }

// Type implements Index.
func (m *Memory) Type() string { return m.typ }

// Reconstruct implements Index. The returned rows alias the matrix.
func (m *Memory) Reconstruct(start, count int) ([][]float32, error) {
	if err := CheckRange(start, count, m.Len()); err != nil {
		return nil, err
	}
	rows := make([][]float32, count)
	for i := range rows {
		off := (start + i) * m.dim
		rows[i] = m.data[off : off+m.dim : off+m.dim]
	}
	return rows, nil
}
