package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gemmbench/internal/api"
	"github.com/samcharles93/gemmbench/internal/logger"
)

func multiplyCmd() *cli.Command {
	var (
		inPath  string
		outPath string
		kernel  string
		threads int64
		maxDim  int64
	)

	return &cli.Command{
		Name:      "multiply",
		Usage:     "Multiply the matrices in a JSON request file",
		ArgsUsage: `reads {"n":2,"a":[...],"b":[...],"c":[...]} from --input`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "request file, - for stdin",
				Value:       "-",
				Destination: &inPath,
			},
			&cli.StringFlag{
				Name:        "out",
				Usage:       "write the result to file instead of stdout",
				Destination: &outPath,
			},
			&cli.StringFlag{
				Name:        "kernel",
				Aliases:     []string{"k"},
				Usage:       "kernel to run, overrides the request",
				Destination: &kernel,
			},
			&cli.Int64Flag{
				Name:        "threads",
				Aliases:     []string{"t"},
				Usage:       "pool size for parallel-threads, overrides the request",
				Destination: &threads,
			},
			&cli.Int64Flag{
				Name:        "max-dimension",
				Usage:       "largest accepted n",
				Value:       api.DefaultMaxDimension,
				Destination: &maxDim,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			req, err := readRequest(inPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			if cmd.IsSet("kernel") {
				req.Kernel = kernel
			}
			if cmd.IsSet("threads") {
				req.Threads = int(threads)
			}
			applyMaxDimension(cmd, fileConfig, &maxDim)

			resp, err := api.NewMultiplier(int(maxDim)).Multiply(ctx, req)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: multiply: %v", err), 1)
			}
			log.Debug("multiply done", "kernel", string(resp.Kernel), "n", resp.N, "elapsed_ns", resp.ElapsedNS)

			return withOutput(outPath, func(w io.Writer) error {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			})
		},
	}
}

func readRequest(path string) (api.MultiplyRequest, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return api.MultiplyRequest{}, err
		}
		defer f.Close()
		r = f
	}

	var req api.MultiplyRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return api.MultiplyRequest{}, fmt.Errorf("decode request: %w", err)
	}
	return req, nil
}
