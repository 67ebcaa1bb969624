package bench

import (
	"errors"
	"fmt"
	"runtime"
	"slices"

	"github.com/samcharles93/gemmbench/internal/gemm"
)

var ErrInvalidConfig = errors.New("invalid benchmark config")

// Config selects what a benchmark run measures.
type Config struct {
	Sizes   []int
	Kernels []gemm.Kernel
	// Threads lists the pool sizes tried for KernelParallelThreads.
	Threads []int
	Warmup  int
	Runs    int
	Seed    int64
}

// DefaultConfig is a grid that finishes in seconds: sizes 100..500, every
// kernel, pools of 2..GOMAXPROCS.
func DefaultConfig() Config {
	threads := []int{}
	for t := 2; t <= max(runtime.GOMAXPROCS(0), 2); t *= 2 {
		threads = append(threads, t)
	}
	return Config{
		Sizes:   []int{100, 200, 300, 400, 500},
		Kernels: gemm.AllKernels(),
		Threads: threads,
		Warmup:  1,
		Runs:    5,
		Seed:    42,
	}
}

func (c Config) Validate() error {
	if len(c.Sizes) == 0 {
		return fmt.Errorf("%w: no sizes", ErrInvalidConfig)
	}
	for _, n := range c.Sizes {
		if n < 0 {
			return fmt.Errorf("%w: negative size %d", ErrInvalidConfig, n)
		}
	}
	if len(c.Kernels) == 0 {
		return fmt.Errorf("%w: no kernels", ErrInvalidConfig)
	}
	needThreads := false
	for _, k := range c.Kernels {
		if !slices.Contains(gemm.AllKernels(), k) {
			return fmt.Errorf("%w: %w %q", ErrInvalidConfig, gemm.ErrUnknownKernel, string(k))
		}
		if k.UsesThreads() {
			needThreads = true
		}
	}
	if needThreads && len(c.Threads) == 0 {
		return fmt.Errorf("%w: %s needs at least one thread count", ErrInvalidConfig, gemm.KernelParallelThreads)
	}
	if c.Runs < 1 {
		return fmt.Errorf("%w: runs must be at least 1", ErrInvalidConfig)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("%w: warmup must not be negative", ErrInvalidConfig)
	}
	return nil
}
