// Package bench times the gemm kernels over a grid of sizes and pool sizes.
package bench

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/logger"
	"github.com/samcharles93/gemmbench/internal/matrix"
	"github.com/samcharles93/gemmbench/internal/sysinfo"
	"github.com/samcharles93/gemmbench/internal/version"
)

// Run executes every (size, kernel, threads) case in cfg and returns the
// collected report. ctx is checked between runs; a kernel call that has
// started always runs to completion.
func Run(ctx context.Context, cfg Config, log logger.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.FromContext(ctx)
	}

	report := &Report{
		ID:        uuid.NewString(),
		Version:   version.String(),
		StartedAt: time.Now().UTC(),
		Seed:      cfg.Seed,
		Warmup:    cfg.Warmup,
		System:    sysinfo.Collect(),
	}
	log = log.With("run_id", report.ID)

	for _, n := range cfg.Sizes {
		a := matrix.NewSquare(n)
		b := matrix.NewSquare(n)
		matrix.FillRand(&a, cfg.Seed)
		matrix.FillRand(&b, cfg.Seed+1)

		for _, k := range cfg.Kernels {
			for _, threads := range threadCounts(k, cfg.Threads) {
				res, err := measure(ctx, cfg, k, threads, a, b)
				if err != nil {
					return nil, err
				}
				log.Info("benchmark case",
					"kernel", string(k),
					"n", n,
					"threads", res.Threads,
					"mean", res.Mean,
					"gflops", res.GFLOPS,
				)
				report.Results = append(report.Results, res)
			}
		}
	}

	report.FinishedAt = time.Now().UTC()
	return report, nil
}

// threadCounts returns the pool sizes to try for k. Kernels without an
// explicit pool are measured once; 0 marks "not applicable".
func threadCounts(k gemm.Kernel, configured []int) []int {
	if k.UsesThreads() {
		return configured
	}
	return []int{0}
}

func measure(ctx context.Context, cfg Config, k gemm.Kernel, threads int, a, b matrix.Square) (Result, error) {
	n := a.N
	res := Result{
		Kernel:  k,
		N:       n,
		Threads: effectiveThreads(k, threads),
		Samples: make([]time.Duration, 0, cfg.Runs),
	}

	work := b.Clone()
	c := matrix.NewSquare(n)
	for i := 0; i < cfg.Warmup+cfg.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		// Fresh inputs every run: accumulating kernels need a zeroed result and
		// transposing kernels leave b transposed.
		c.Reset()
		if k.MutatesB() {
			copy(work.Data, b.Data)
		}

		start := time.Now()
		if err := gemm.Run(k, a.Data, work.Data, c.Data, n, threads); err != nil {
			return Result{}, err
		}
		elapsed := time.Since(start)

		if i >= cfg.Warmup {
			res.Samples = append(res.Samples, elapsed)
		}
	}

	summarize(&res)
	return res, nil
}

func effectiveThreads(k gemm.Kernel, threads int) int {
	switch {
	case k.UsesThreads():
		return threads
	case k.Parallel():
		return gemm.DefaultPool().Size()
	default:
		return 1
	}
}
