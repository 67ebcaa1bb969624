// Package matrix holds the square row-major buffers fed to the gemm kernels
// and the seeded generators used by the benchmark and verification tools.
package matrix

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var (
	ErrNegativeDim = errors.New("negative dimension for matrix")
	ErrShape       = errors.New("data length does not match n*n")
)

// Square is an n×n row-major matrix of float64 values. Element (r, c) lives
// at Data[r*N+c].
type Square struct {
	N    int
	Data []float64
}

// NewSquare allocates a zero-initialised n×n matrix.
func NewSquare(n int) Square {
	if n < 0 {
		panic("negative dimension for matrix")
	}
	return Square{
		N:    n,
		Data: make([]float64, n*n),
	}
}

// NewSquareFromData wraps data without copying. len(data) must equal n*n.
func NewSquareFromData(n int, data []float64) (Square, error) {
	if n < 0 {
		return Square{}, ErrNegativeDim
	}
	if n != 0 && (n*n)/n != n {
		return Square{}, fmt.Errorf("%w: n=%d overflows", ErrShape, n)
	}
	if len(data) != n*n {
		return Square{}, fmt.Errorf("%w: n=%d len=%d", ErrShape, n, len(data))
	}
	return Square{N: n, Data: data}, nil
}

// Row returns a view of row i.
func (m *Square) Row(i int) []float64 {
	if i < 0 || i >= m.N {
		panic("row index out of range")
	}
	start := i * m.N
	return m.Data[start : start+m.N]
}

func (m *Square) At(i, j int) float64 {
	return m.Row(i)[j]
}

func (m *Square) Set(i, j int, v float64) {
	m.Row(i)[j] = v
}

// Reset zeroes every element. Accumulating kernels need this before each
// fresh product.
func (m *Square) Reset() {
	clear(m.Data)
}

func (m *Square) Clone() Square {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return Square{N: m.N, Data: data}
}

// FillRand fills m with reproducible uniform values in [0, 1). The same seed
// always produces the same matrix.
func FillRand(m *Square, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = rng.Float64()
	}
}

// FillInts fills m with reproducible integers in [0, limit). Products of such
// matrices are exact in float64 as long as n*limit² stays below 2^53.
func FillInts(m *Square, seed int64, limit int) {
	if limit < 1 {
		limit = 1
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = float64(rng.Intn(limit))
	}
}

// MaxAbsDiff returns the largest element-wise |a-b|. Slices of different
// length compare as +Inf.
func MaxAbsDiff(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var maxAbs float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxAbs || math.IsNaN(d) {
			maxAbs = d
		}
	}
	return maxAbs
}

// Equal reports whether a and b hold bit-identical values.
func Equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Float64bits(a[i]) != math.Float64bits(b[i]) {
			return false
		}
	}
	return true
}
