package gemm

import (
	"errors"
	"math"
	"math/rand"
	"slices"
	"testing"
)

// product is the textbook definition, used as the oracle.
func product(a, b []int64, n int) []int64 {
	out := make([]int64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			var sum int64
			for k := 0; k < n; k++ {
				sum += a[i*n+k] * b[k*n+j]
			}
			out[i*n+j] = sum
		}
	}
	return out
}

// transposeOf returns the transpose of m in a new buffer.
func transposeOf[T any](m []T, n int) []T {
	out := make([]T, len(m))
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[j*n+i] = m[i*n+j]
		}
	}
	return out
}

func randInts(n int, seed int64) []int64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]int64, n*n)
	for i := range out {
		out[i] = rng.Int63n(21) - 10
	}
	return out
}

func randFloats(n int, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n*n)
	for i := range out {
		out[i] = rng.Float64()
	}
	return out
}

func maxAbsDiff(a, b []float64) float64 {
	var maxAbs float64
	for i := range a {
		d := math.Abs(a[i] - b[i])
		if d > maxAbs {
			maxAbs = d
		}
	}
	return maxAbs
}

func TestTranspose(t *testing.T) {
	t.Parallel()
	tests := []struct {
		n    int
		in   []int
		want []int
	}{
		{0, []int{}, []int{}},
		{1, []int{7}, []int{7}},
		{2, []int{1, 2, 3, 4}, []int{1, 3, 2, 4}},
		{3, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, []int{0, 3, 6, 1, 4, 7, 2, 5, 8}},
	}
	for _, tt := range tests {
		m := slices.Clone(tt.in)
		Transpose(m, tt.n)
		if !slices.Equal(m, tt.want) {
			t.Fatalf("n=%d: got %v want %v", tt.n, m, tt.want)
		}
		for i := 0; i < tt.n; i++ {
			if m[i*tt.n+i] != tt.in[i*tt.n+i] {
				t.Fatalf("n=%d: diagonal element %d moved", tt.n, i)
			}
		}
	}

	for _, n := range []int{4, 5, 16, 33} {
		m := make([]int, n*n)
		for i := range m {
			m[i] = i
		}
		Transpose(m, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if m[i*n+j] != j*n+i {
					t.Fatalf("n=%d (%d,%d)=%d, want %d", n, i, j, m[i*n+j], j*n+i)
				}
			}
		}
		Transpose(m, n)
		for i := range m {
			if m[i] != i {
				t.Fatalf("n=%d: transposing twice did not restore element %d", n, i)
			}
		}
	}
}

func TestNaiveConcreteScenario(t *testing.T) {
	t.Parallel()
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}
	c := make([]float64, 4)

	Naive(a, b, c, 2)

	want := []float64{19, 22, 43, 50}
	if !slices.Equal(c, want) {
		t.Fatalf("got %v want %v", c, want)
	}
}

func TestNaiveMatchesProduct(t *testing.T) {
	t.Parallel()
	for n := 0; n <= 8; n++ {
		a := randInts(n, int64(n)+1)
		b := randInts(n, int64(n)+100)
		c := make([]int64, n*n)

		Naive(a, b, c, n)

		if want := product(a, b, n); !slices.Equal(c, want) {
			t.Fatalf("n=%d: got %v want %v", n, c, want)
		}
	}
}

func TestTransposedMatchesNaive(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 3, 7, 16, 33} {
		a := randInts(n, 11)
		b := randInts(n, 12)
		orig := slices.Clone(b)

		want := make([]int64, n*n)
		Naive(a, orig, want, n)

		got := make([]int64, n*n)
		bt := Transposed(a, b, got, n)

		if !slices.Equal(got, want) {
			t.Fatalf("n=%d: transposed result differs from naive", n)
		}
		if &bt[0] != &b[0] {
			t.Fatalf("n=%d: returned operand does not alias b", n)
		}
		if !slices.Equal(b, transposeOf(orig, n)) {
			t.Fatalf("n=%d: b is not left in transposed layout", n)
		}
	}
}

func TestTransposedFloatsWithinTolerance(t *testing.T) {
	t.Parallel()
	const n = 40
	a := randFloats(n, 1)
	b := randFloats(n, 2)

	want := make([]float64, n*n)
	Naive(a, b, want, n)

	got := make([]float64, n*n)
	Transposed(a, slices.Clone(b), got, n)

	if d := maxAbsDiff(got, want); d > 1e-9 {
		t.Fatalf("max abs diff %g", d)
	}
}

func TestParallelOverwritesAndMatchesNaive(t *testing.T) {
	t.Parallel()
	for _, n := range []int{1, 2, 5, 17, 64} {
		a := randInts(n, 21)
		b := randInts(n, 22)

		want := make([]int64, n*n)
		Naive(a, b, want, n)

		// Parallel kernels must ignore whatever the buffer held.
		got := make([]int64, n*n)
		for i := range got {
			got[i] = 1000
		}
		Parallel(a, b, got, n)
		if !slices.Equal(got, want) {
			t.Fatalf("n=%d: parallel result differs from naive", n)
		}

		for i := range got {
			got[i] = -7
		}
		ParallelTransposed(a, slices.Clone(b), got, n)
		if !slices.Equal(got, want) {
			t.Fatalf("n=%d: parallel transposed result differs from naive", n)
		}
	}
}

func TestParallelFloatsWithinTolerance(t *testing.T) {
	t.Parallel()
	const n = 50
	a := randFloats(n, 3)
	b := randFloats(n, 4)

	want := make([]float64, n*n)
	Naive(a, b, want, n)

	got := make([]float64, n*n)
	Parallel(a, b, got, n)
	if d := maxAbsDiff(got, want); d > 1e-9 {
		t.Fatalf("parallel: max abs diff %g", d)
	}

	ParallelTransposed(a, slices.Clone(b), got, n)
	if d := maxAbsDiff(got, want); d > 1e-9 {
		t.Fatalf("parallel transposed: max abs diff %g", d)
	}
}

func TestParallelWithThreadsBitIdentical(t *testing.T) {
	t.Parallel()
	const n = 37
	a := randFloats(n, 5)
	b := randFloats(n, 6)

	var ref []float64
	for _, threads := range []int{1, 2, 4, n} {
		c := make([]float64, n*n)
		if err := ParallelWithThreads(a, b, c, n, threads); err != nil {
			t.Fatalf("threads=%d: %v", threads, err)
		}
		if ref == nil {
			ref = c
			continue
		}
		for i := range c {
			if math.Float64bits(c[i]) != math.Float64bits(ref[i]) {
				t.Fatalf("threads=%d: element %d is %v, want %v", threads, i, c[i], ref[i])
			}
		}
	}

	c := make([]float64, n*n)
	Parallel(a, b, c, n)
	for i := range c {
		if math.Float64bits(c[i]) != math.Float64bits(ref[i]) {
			t.Fatalf("default pool: element %d is %v, want %v", i, c[i], ref[i])
		}
	}
}

func TestAccumulatingKernelsDoubleOnSecondCall(t *testing.T) {
	t.Parallel()
	const n = 6
	a := randInts(n, 31)
	b := randInts(n, 32)
	single := product(a, b, n)

	c := make([]int64, n*n)
	Naive(a, b, c, n)
	Naive(a, b, c, n)
	for i := range c {
		if c[i] != 2*single[i] {
			t.Fatalf("naive: element %d is %d, want %d", i, c[i], 2*single[i])
		}
	}

	c = make([]int64, n*n)
	bt := Transposed(a, slices.Clone(b), c, n)
	// bt is already transposed; transpose it back before the second call.
	Transpose(bt, n)
	Transposed(a, bt, c, n)
	for i := range c {
		if c[i] != 2*single[i] {
			t.Fatalf("transposed: element %d is %d, want %d", i, c[i], 2*single[i])
		}
	}
}

func TestZeroDimensionWritesNothing(t *testing.T) {
	t.Parallel()
	c := []float64{42}
	b := []float64{7}

	Naive(nil, b, c, 0)
	Transposed(nil, b, c, 0)
	Parallel(nil, b, c, 0)
	ParallelTransposed(nil, b, c, 0)
	if err := ParallelWithThreads(nil, b, c, 0, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if c[0] != 42 || b[0] != 7 {
		t.Fatalf("buffers changed: c=%v b=%v", c, b)
	}
}

func TestDimensionOne(t *testing.T) {
	t.Parallel()
	tests := []struct {
		kernel Kernel
		want   float64
	}{
		{KernelNaive, 22},
		{KernelTransposed, 22},
		{KernelParallel, 12},
		{KernelParallelTransposed, 12},
		{KernelParallelThreads, 12},
	}
	for _, tt := range tests {
		c := []float64{10}
		if err := Run(tt.kernel, []float64{3}, []float64{4}, c, 1, 1); err != nil {
			t.Fatalf("%s: %v", tt.kernel, err)
		}
		if c[0] != tt.want {
			t.Fatalf("%s: got %v want %v", tt.kernel, c[0], tt.want)
		}
	}
}

func TestParallelWithThreadsRejectsBadCounts(t *testing.T) {
	t.Parallel()
	a := []float64{1, 2, 3, 4}
	b := []float64{5, 6, 7, 8}

	for _, threads := range []int{0, -1} {
		c := []float64{9, 9, 9, 9}
		err := ParallelWithThreads(a, b, c, 2, threads)
		if !errors.Is(err, ErrInvalidThreadCount) {
			t.Fatalf("threads=%d: got %v, want ErrInvalidThreadCount", threads, err)
		}
		var perr *PoolError
		if !errors.As(err, &perr) || perr.Threads != threads {
			t.Fatalf("threads=%d: expected *PoolError carrying the count, got %#v", threads, err)
		}
		if !slices.Equal(c, []float64{9, 9, 9, 9}) {
			t.Fatalf("threads=%d: result touched after failed pool build: %v", threads, c)
		}
	}

	err := ParallelWithThreads(a, b, make([]float64, 4), 2, MaxThreads+1)
	if !errors.Is(err, ErrTooManyThreads) {
		t.Fatalf("got %v, want ErrTooManyThreads", err)
	}
}

func TestKernelsOnIntegerTypes(t *testing.T) {
	t.Parallel()
	a := []uint8{1, 2, 3, 4}
	b := []uint8{5, 6, 7, 8}
	c := make([]uint8, 4)
	Parallel(a, b, c, 2)
	if !slices.Equal(c, []uint8{19, 22, 43, 50}) {
		t.Fatalf("uint8: got %v", c)
	}

	af := []float32{1, 2, 3, 4}
	bf := []float32{5, 6, 7, 8}
	cf := make([]float32, 4)
	ParallelTransposed(af, bf, cf, 2)
	if !slices.Equal(cf, []float32{19, 22, 43, 50}) {
		t.Fatalf("float32: got %v", cf)
	}
}
