package testutil

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewSource(r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func(rnd *rand.Rand) float32 {
		return rnd.Float32()
	})
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func(rnd *rand.Rand) float32 {
		return rnd.Float32()*2 - 1
	})
}

// UnitVectors generates L2-normalized random vectors.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	vectors := r.vectors(num, dimensions, func(rnd *rand.Rand) float32 {
		return float32(rnd.NormFloat64())
	})
	for _, vec := range vectors {
		var norm float64
		for _, v := range vec {
			norm += float64(v) * float64(v)
		}
		if norm == 0 {
			continue
		}
		inv := float32(1 / math.Sqrt(norm))
		for j := range vec {
			vec[j] *= inv
		}
	}
	return vectors
}

// IDs returns num distinct ids drawn from [0, 1<<40).
func (r *RNG) IDs(num int) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[int64]struct{}, num)
	ids := make([]int64, 0, num)
	for len(ids) < num {
		id := r.rand.Int63n(1 << 40)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (r *RNG) vectors(num, dimensions int, next func(*rand.Rand) float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)
	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = next(r.rand)
		}
		vectors[i] = vec
	}
	return vectors
}

// Professor is one entry of a generated metadata document.
type Professor struct {
	Name       string   `json:"name"`
	Department string   `json:"department"`
	Topics     []string `json:"topics"`
}

var departments = []string{"Informatik", "Mathématiques", "Physics", "Économie"}

// Professors returns a JSON array of n metadata objects. Names include
// non-ASCII characters.
func Professors(n int) []byte {
	out := make([]Professor, n)
	for i := range out {
		out[i] = Professor{
			Name:       fmt.Sprintf("Prof. Müller-%d", i),
			Department: departments[i%len(departments)],
			Topics:     []string{"retrieval", fmt.Sprintf("topic-%d", i)},
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		panic(err)
	}
	return b
}

// WriteFile writes data to dir/name, creating parent directories, and
// returns the full path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
