package main

import (
	"context"
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gemmbench/internal/logger"
	"github.com/samcharles93/gemmbench/internal/verify"
)

func verifyCmd() *cli.Command {
	var (
		seed      int64
		tolerance float64
		output    string
		outPath   string
	)

	flags := []cli.Flag{
		&cli.Int64SliceFlag{
			Name:  "sizes",
			Usage: "matrix dimensions to check",
			Value: []int64{0, 1, 2, 3, 8, 64, 257},
		},
		&cli.Int64SliceFlag{
			Name:  "threads",
			Usage: "pool sizes compared for thread-count invariance",
			Value: []int64{1, 2, 4, 8},
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for the generated operands",
			Value:       1,
			Destination: &seed,
		},
		&cli.Float64Flag{
			Name:        "tolerance",
			Usage:       "allowed absolute error per unit of n against the BLAS reference",
			Value:       1e-12,
			Destination: &tolerance,
		},
	}
	flags = append(flags, outputFlags(&output, &outPath)...)

	return &cli.Command{
		Name:  "verify",
		Usage: "Check every kernel against the gonum BLAS reference",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			s := benchSettings{
				sizes:     toInts(cmd.Int64Slice("sizes")),
				threads:   toInts(cmd.Int64Slice("threads")),
				seed:      seed,
				tolerance: tolerance,
				output:    output,
			}
			applyBenchConfig(cmd, fileConfig, &s)

			outcomes, err := verify.Check(ctx, verify.Options{
				Sizes:     s.sizes,
				Threads:   s.threads,
				Seed:      s.seed,
				Tolerance: s.tolerance,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: verify: %v", err), 1)
			}

			err = withOutput(outPath, func(w io.Writer) error {
				if s.output == "json" {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					return enc.Encode(outcomes)
				}
				return writeOutcomes(w, outcomes)
			})
			if err != nil {
				return err
			}

			failed := verify.Failed(outcomes)
			for _, o := range failed {
				log.Error("check failed", "check", o.Check, "kernel", string(o.Kernel), "n", o.N, "threads", o.Threads, "detail", o.Detail)
			}
			if len(failed) > 0 {
				return cli.Exit(fmt.Sprintf("verify: %d of %d checks failed", len(failed), len(outcomes)), 1)
			}
			log.Info("all checks passed", "checks", len(outcomes))
			return nil
		},
	}
}

func writeOutcomes(w io.Writer, outcomes []verify.Outcome) error {
	if _, err := fmt.Fprintf(w, "%-18s %-20s %6s %7s %12s %s\n", "Check", "Kernel", "N", "Threads", "MaxAbsDiff", "Status"); err != nil {
		return err
	}
	for _, o := range outcomes {
		status := "ok"
		if !o.OK {
			status = "FAIL " + o.Detail
		}
		if _, err := fmt.Fprintf(w, "%-18s %-20s %6d %7d %12.3g %s\n", o.Check, o.Kernel, o.N, o.Threads, o.MaxAbsDiff, status); err != nil {
			return err
		}
	}
	return nil
}
