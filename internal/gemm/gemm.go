// Package gemm multiplies square row-major matrices held in flat buffers.
//
// Every kernel takes the operands a and b, the result buffer c and the shared
// dimension n. All three buffers must hold exactly n*n elements; lengths are
// not validated.
//
// The kernels do not agree on what happens to the existing contents of c:
//
//   - Naive and Transposed accumulate. Each element receives c[i,j] += a·b
//     term by term and is never reset, so c must be zeroed before a fresh
//     product. Reusing a dirty buffer adds onto the stale values.
//   - Parallel, ParallelTransposed and ParallelWithThreads overwrite. Each row
//     task sums into a local zero value and assigns the total once, so
//     whatever c held before the call is discarded.
//
// Callers that mix kernels on one buffer must account for the difference.
//
// Transposed and ParallelTransposed take ownership of b: it is transposed in
// place and handed back as the return value. The caller's slice aliases the
// returned one and no longer holds the original operand.
package gemm

// Number is the element constraint for the kernels: ordered numeric kinds
// with +, * and a zero value.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Naive accumulates a×b into c with the i, j, k triple loop. b is walked
// column-wise with stride n.
//
// c is not cleared first.
func Naive[T Number](a, b, c []T, n int) {
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cIdx := i*n + j
			for k := 0; k < n; k++ {
				c[cIdx] += a[i*n+k] * b[k*n+j]
			}
		}
	}
}

// Transposed transposes b in place and then accumulates a×b into c reading
// both operands row-wise. The result matches Naive on the original b.
//
// b is consumed: the returned slice is b in transposed layout (the same
// backing array). c is not cleared first.
func Transposed[T Number](a, b, c []T, n int) []T {
	Transpose(b, n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			cIdx := i*n + j
			for k := 0; k < n; k++ {
				c[cIdx] += a[i*n+k] * b[j*n+k]
			}
		}
	}
	return b
}

// Parallel computes a×b on the process-wide pool, one task per output row.
// Each element is summed into a local zero value and then assigned, so the
// previous contents of c are overwritten.
func Parallel[T Number](a, b, c []T, n int) {
	ParallelOn(DefaultPool(), a, b, c, n)
}

// ParallelTransposed transposes b in place, then computes a×b on the
// process-wide pool reading b row-wise. c is overwritten.
//
// The transpose completes on the calling goroutine before any row task is
// submitted. b is consumed and returned in transposed layout.
func ParallelTransposed[T Number](a, b, c []T, n int) []T {
	return ParallelTransposedOn(DefaultPool(), a, b, c, n)
}

// ParallelWithThreads computes a×b like Parallel but on a pool of exactly
// threads workers that lives only for the duration of the call.
//
// If the pool cannot be built the returned error wraps ErrInvalidThreadCount
// or ErrTooManyThreads and c is left untouched. There is no fallback to the
// default pool.
func ParallelWithThreads[T Number](a, b, c []T, n, threads int) error {
	pool, err := NewPool(threads)
	if err != nil {
		return err
	}
	defer pool.Close()

	ParallelOn(pool, a, b, c, n)
	return nil
}

// ParallelOn is Parallel on a caller-supplied pool.
func ParallelOn[T Number](p *Pool, a, b, c []T, n int) {
	p.ForEachRow(n, func(i int) {
		aRow := a[i*n : (i+1)*n]
		cRow := c[i*n : (i+1)*n]
		for j := range cRow {
			var sum T
			for k, aik := range aRow {
				sum += aik * b[k*n+j]
			}
			cRow[j] = sum
		}
	})
}

// ParallelTransposedOn is ParallelTransposed on a caller-supplied pool.
func ParallelTransposedOn[T Number](p *Pool, a, b, c []T, n int) []T {
	Transpose(b, n)

	p.ForEachRow(n, func(i int) {
		aRow := a[i*n : (i+1)*n]
		cRow := c[i*n : (i+1)*n]
		for j := range cRow {
			bRow := b[j*n : (j+1)*n]
			var sum T
			for k, aik := range aRow {
				sum += aik * bRow[k]
			}
			cRow[j] = sum
		}
	})
	return b
}
