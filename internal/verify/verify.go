// Package verify cross-checks the gemm kernels against gonum's BLAS.
package verify

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/matrix"
)

var ErrNoSizes = errors.New("verify: no sizes to check")

// Check names for outcomes that are not a plain kernel-vs-reference compare.
const (
	CheckProduct    = "product"
	CheckTranspose  = "transposed-b"
	CheckThreads    = "thread-invariance"
	CheckAccumulate = "accumulate"
	CheckOverwrite  = "overwrite"
)

type Options struct {
	Sizes []int
	// Threads are the pool sizes for parallel-threads. The thread-count
	// invariance check compares all of them bit for bit.
	Threads []int
	Seed    int64
	// Tolerance is the allowed absolute error per unit of n.
	Tolerance float64
}

type Outcome struct {
	Check      string      `json:"check"`
	Kernel     gemm.Kernel `json:"kernel"`
	N          int         `json:"n"`
	Threads    int         `json:"threads,omitempty"`
	MaxAbsDiff float64     `json:"max_abs_diff"`
	OK         bool        `json:"ok"`
	Detail     string      `json:"detail,omitempty"`
}

// Reference computes a×b with blas64.Gemm.
func Reference(a, b []float64, n int) []float64 {
	c := make([]float64, n*n)
	if n == 0 {
		return c
	}
	general := func(data []float64) blas64.General {
		return blas64.General{Rows: n, Cols: n, Stride: n, Data: data}
	}
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1, general(a), general(b), 0, general(c))
	return c
}

// Check runs every kernel for each size in opts and reports one Outcome per
// comparison. The error is only non-nil for unusable options, cancellation
// or a pool that could not be built. ctx is checked between kernel runs.
func Check(ctx context.Context, opts Options) ([]Outcome, error) {
	if len(opts.Sizes) == 0 {
		return nil, ErrNoSizes
	}
	if len(opts.Threads) == 0 {
		opts.Threads = []int{1}
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = 1e-12
	}

	var out []Outcome
	for _, n := range opts.Sizes {
		res, err := checkSize(ctx, n, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// Failed returns the outcomes that did not pass.
func Failed(outcomes []Outcome) []Outcome {
	var bad []Outcome
	for _, o := range outcomes {
		if !o.OK {
			bad = append(bad, o)
		}
	}
	return bad
}

func checkSize(ctx context.Context, n int, opts Options) ([]Outcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a := matrix.NewSquare(n)
	b := matrix.NewSquare(n)
	matrix.FillRand(&a, opts.Seed)
	matrix.FillRand(&b, opts.Seed+1)
	ref := Reference(a.Data, b.Data, n)
	tol := opts.Tolerance * float64(max(n, 1))

	bt := transposeOf(b)

	var out []Outcome
	compare := func(check string, k gemm.Kernel, threads int, got, want []float64) {
		d := matrix.MaxAbsDiff(got, want)
		o := Outcome{Check: check, Kernel: k, N: n, Threads: threads, MaxAbsDiff: d, OK: d <= tol}
		if !o.OK {
			o.Detail = fmt.Sprintf("max abs diff %g exceeds %g", d, tol)
		}
		out = append(out, o)
	}

	for _, k := range gemm.AllKernels() {
		threads := []int{0}
		if k.UsesThreads() {
			threads = opts.Threads
		}
		for _, t := range threads {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			work := b.Clone()
			c := matrix.NewSquare(n)
			if err := gemm.Run(k, a.Data, work.Data, c.Data, n, t); err != nil {
				return nil, fmt.Errorf("verify %s n=%d: %w", k, n, err)
			}
			compare(CheckProduct, k, t, c.Data, ref)

			if k.MutatesB() {
				o := Outcome{Check: CheckTranspose, Kernel: k, N: n, OK: matrix.Equal(work.Data, bt.Data)}
				if !o.OK {
					o.Detail = "second operand is not left in transposed layout"
				}
				out = append(out, o)
			}
		}
	}

	threadOutcome, err := checkThreadInvariance(a, b, n, opts.Threads)
	if err != nil {
		return nil, err
	}
	out = append(out, threadOutcome)

	// Accumulating kernels add onto what is already there; parallel kernels
	// discard it.
	doubled := slices.Clone(ref)
	for i := range doubled {
		doubled[i] *= 2
	}
	acc := matrix.NewSquare(n)
	copy(acc.Data, ref)
	gemm.Naive(a.Data, b.Data, acc.Data, n)
	compare(CheckAccumulate, gemm.KernelNaive, 0, acc.Data, doubled)

	over := matrix.NewSquare(n)
	copy(over.Data, ref)
	gemm.Parallel(a.Data, b.Data, over.Data, n)
	compare(CheckOverwrite, gemm.KernelParallel, 0, over.Data, ref)

	return out, nil
}

func checkThreadInvariance(a, b matrix.Square, n int, threads []int) (Outcome, error) {
	o := Outcome{Check: CheckThreads, Kernel: gemm.KernelParallelThreads, N: n, OK: true}
	var first []float64
	for _, t := range threads {
		c := matrix.NewSquare(n)
		if err := gemm.ParallelWithThreads(a.Data, b.Data, c.Data, n, t); err != nil {
			return Outcome{}, fmt.Errorf("verify thread invariance n=%d: %w", n, err)
		}
		if first == nil {
			first = c.Data
			continue
		}
		if !matrix.Equal(first, c.Data) {
			o.OK = false
			o.Threads = t
			o.MaxAbsDiff = matrix.MaxAbsDiff(first, c.Data)
			o.Detail = fmt.Sprintf("pool of %d threads differs from pool of %d", t, threads[0])
			break
		}
	}
	return o, nil
}

// transposeOf builds the transpose of m into a fresh buffer, independent of
// the in-place swap the kernels use.
func transposeOf(m matrix.Square) matrix.Square {
	out := matrix.NewSquare(m.N)
	for i := 0; i < m.N; i++ {
		for j := 0; j < m.N; j++ {
			out.Data[j*m.N+i] = m.Data[i*m.N+j]
		}
	}
	return out
}
