package main

import (
	"context"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/sysinfo"
	"github.com/samcharles93/gemmbench/internal/version"
)

func sysinfoCmd() *cli.Command {
	return &cli.Command{
		Name:  "sysinfo",
		Usage: "Print CPU and runtime information as JSON",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := struct {
				Version     version.Info `json:"version"`
				System      sysinfo.Info `json:"system"`
				DefaultPool int          `json:"default_pool_size"`
				MaxThreads  int          `json:"max_threads"`
			}{
				Version:     version.Resolve(),
				System:      sysinfo.Collect(),
				DefaultPool: gemm.DefaultPool().Size(),
				MaxThreads:  gemm.MaxThreads,
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}
