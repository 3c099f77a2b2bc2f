package index

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// ErrUnknownFormat is returned when no registered format recognizes a file.
var ErrUnknownFormat = errors.New("unknown index format")

// ErrRangeOutOfBounds is returned when a reconstruction range does not lie
// inside [0, Len()).
type ErrRangeOutOfBounds struct {
	Start int
	Count int
	Len   int
}

func (e *ErrRangeOutOfBounds) Error() string {
	return fmt.Sprintf("range [%d, %d) out of bounds for %d vectors", e.Start, e.Start+e.Count, e.Len)
}

// Index is a read-only collection of N vectors of dimensionality D.
type Index interface {
	// Len returns the number of stored vectors (N).
	Len() int

	// Dimension returns the number of components per vector (D).
	Dimension() int

	// Type names the concrete index variant, e.g. "IndexFlatL2".
	Type() string

	// Reconstruct returns vectors [start, start+count) in identifier order.
	// Rows may share one backing array and must be treated as read-only.
	Reconstruct(start, count int) ([][]float32, error)
}

// IDMapper is implemented by indexes that map internal positions to
// caller-assigned 64-bit identifiers.
type IDMapper interface {
	// IDs returns the external identifier of each vector, in internal order.
	IDs() []int64

	// DistinctIDs returns how many different identifiers IDs holds. Ids
	// need not be unique, so it may be less than len(IDs()).
	DistinctIDs() int
}

// CheckRange validates a reconstruction range against n stored vectors.
func CheckRange(start, count, n int) error {
	if start < 0 || count < 0 || start > n || count > n-start {
		return &ErrRangeOutOfBounds{Start: start, Count: count, Len: n}
	}
	return nil
}

// ReconstructAll returns every vector of idx in one call.
func ReconstructAll(idx Index) ([][]float32, error) {
	return idx.Reconstruct(0, idx.Len())
}

// SizeBytes estimates the float32 payload of a full reconstruction. The
// result saturates at math.MaxInt64 so an oversized index still trips a
// memory budget.
func SizeBytes(idx Index) int64 {
	n, d := idx.Len(), idx.Dimension()
	if n <= 0 || d <= 0 {
		return 0
	}
	hi, lo := bits.Mul64(uint64(n), uint64(d))
	if hi != 0 || lo > math.MaxInt64/4 {
		return math.MaxInt64
	}
	return int64(lo) * 4
}
