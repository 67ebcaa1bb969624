package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/gemmbench/internal/gemm"
)

// DefaultMaxDimension caps n for requests that arrive over the network.
const DefaultMaxDimension = 1024

// Multiplier validates requests and runs them through the gemm kernels. The
// kernels trust their callers, so every length check happens here.
type Multiplier struct {
	maxDim int
	clock  func() time.Time
}

func NewMultiplier(maxDim int) *Multiplier {
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Multiplier{
		maxDim: maxDim,
		clock:  time.Now,
	}
}

func (m *Multiplier) MaxDimension() int {
	return m.maxDim
}

// Multiply runs req. Validation failures and pool construction failures
// wrap ErrInvalidRequest. The operand slices of req are used in place.
func (m *Multiplier) Multiply(ctx context.Context, req MultiplyRequest) (*MultiplyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := req.Kernel
	if name == "" {
		name = string(gemm.KernelParallel)
	}
	k, err := gemm.ParseKernel(name)
	if err != nil {
		return nil, newInvalidRequest("kernel", "unknown_kernel", err.Error())
	}

	n := req.N
	if n < 0 || n > m.maxDim {
		return nil, newInvalidRequest("n", "invalid_dimension",
			fmt.Sprintf("n must be between 0 and %d, got %d", m.maxDim, n))
	}
	want := n * n
	if len(req.A) != want {
		return nil, newInvalidRequest("a", "shape_mismatch", fmt.Sprintf("a has %d elements, want %d", len(req.A), want))
	}
	if len(req.B) != want {
		return nil, newInvalidRequest("b", "shape_mismatch", fmt.Sprintf("b has %d elements, want %d", len(req.B), want))
	}
	c := req.C
	if c == nil {
		c = make([]float64, want)
	} else if len(c) != want {
		return nil, newInvalidRequest("c", "shape_mismatch", fmt.Sprintf("c has %d elements, want %d", len(c), want))
	}

	threads := 0
	if k.UsesThreads() {
		threads = req.Threads
	}

	now := m.clock()
	start := time.Now()
	if err := gemm.Run(k, req.A, req.B, c, n, threads); err != nil {
		var perr *gemm.PoolError
		if errors.As(err, &perr) {
			return nil, newInvalidRequest("threads", "invalid_threads", err.Error())
		}
		return nil, err
	}
	elapsed := time.Since(start)

	resp := &MultiplyResponse{
		ID:          "gemm_" + uuid.NewString(),
		Object:      "gemm.result",
		CreatedAt:   now.Unix(),
		Kernel:      k,
		N:           n,
		Threads:     threads,
		Accumulated: k.Accumulates(),
		Result:      c,
		ElapsedNS:   elapsed.Nanoseconds(),
	}
	if k.MutatesB() {
		resp.BTransposed = req.B
	}
	return resp, nil
}

// Kernels describes every available kernel.
func Kernels() []KernelInfo {
	kernels := gemm.AllKernels()
	out := make([]KernelInfo, 0, len(kernels))
	for _, k := range kernels {
		out = append(out, KernelInfo{
			Name:        k,
			Description: k.Description(),
			Accumulates: k.Accumulates(),
			MutatesB:    k.MutatesB(),
			Parallel:    k.Parallel(),
			UsesThreads: k.UsesThreads(),
		})
	}
	return out
}
