package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gemmbench/internal/bench"
	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/logger"
)

func benchCmd() *cli.Command {
	var (
		warmup  int64
		runs    int64
		seed    int64
		output  string
		outPath string
	)
	defaults := bench.DefaultConfig()

	flags := []cli.Flag{
		&cli.Int64SliceFlag{
			Name:  "sizes",
			Usage: "matrix dimensions to benchmark",
			Value: toInt64s(defaults.Sizes),
		},
		&cli.StringSliceFlag{
			Name:  "kernels",
			Usage: "kernels to run (naive, transpose, parallel, parallel-transpose, parallel-threads)",
			Value: kernelNames(defaults.Kernels),
		},
		&cli.Int64SliceFlag{
			Name:  "threads",
			Usage: "pool sizes for parallel-threads",
			Value: toInt64s(defaults.Threads),
		},
		&cli.Int64Flag{
			Name:        "warmup",
			Usage:       "number of warmup runs per case",
			Value:       int64(defaults.Warmup),
			Destination: &warmup,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of timed runs per case",
			Value:       int64(defaults.Runs),
			Destination: &runs,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for the generated operands",
			Value:       defaults.Seed,
			Destination: &seed,
		},
	}
	flags = append(flags, outputFlags(&output, &outPath)...)

	return &cli.Command{
		Name:  "bench",
		Usage: "Time every kernel over a grid of sizes and pool sizes",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			s := benchSettings{
				sizes:   toInts(cmd.Int64Slice("sizes")),
				threads: toInts(cmd.Int64Slice("threads")),
				kernels: cmd.StringSlice("kernels"),
				warmup:  warmup,
				runs:    runs,
				seed:    seed,
				output:  output,
			}
			applyBenchConfig(cmd, fileConfig, &s)

			kernels, err := parseKernels(s.kernels)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			cfg := bench.Config{
				Sizes:   s.sizes,
				Kernels: kernels,
				Threads: s.threads,
				Warmup:  int(s.warmup),
				Runs:    int(s.runs),
				Seed:    s.seed,
			}
			log.Info("starting benchmark", "sizes", fmt.Sprint(cfg.Sizes), "kernels", strings.Join(s.kernels, ","), "runs", cfg.Runs)

			report, err := bench.Run(ctx, cfg, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: benchmark: %v", err), 1)
			}

			return withOutput(outPath, func(w io.Writer) error {
				if s.output == "json" {
					return report.WriteJSON(w)
				}
				return report.WriteText(w)
			})
		},
	}
}

func parseKernels(names []string) ([]gemm.Kernel, error) {
	out := make([]gemm.Kernel, 0, len(names))
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			k, err := gemm.ParseKernel(part)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}

func kernelNames(kernels []gemm.Kernel) []string {
	out := make([]string, len(kernels))
	for i, k := range kernels {
		out[i] = string(k)
	}
	return out
}

// withOutput runs fn against stdout, or against the file at path when set.
func withOutput(path string, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: create %s: %v", path, err), 1)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
