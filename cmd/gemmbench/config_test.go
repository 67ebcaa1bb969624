package main

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/gemmbench/internal/api"
	"github.com/samcharles93/gemmbench/internal/gemm"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
sizes: [16, 32]
threads: [1, 3]
kernels: [naive, parallel]
runs: 7
seed: 99
log_level: debug
server_address: 0.0.0.0:9000
max_dimension: 2048
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !slices.Equal(cfg.Sizes, []int{16, 32}) || !slices.Equal(cfg.Threads, []int{1, 3}) {
		t.Fatalf("unexpected sizes/threads: %+v", cfg)
	}
	if cfg.Runs == nil || *cfg.Runs != 7 || cfg.Seed == nil || *cfg.Seed != 99 {
		t.Fatalf("unexpected runs/seed: %+v", cfg)
	}
	if cfg.Warmup != nil {
		t.Fatalf("warmup should be unset")
	}
	if cfg.LogLevel != "debug" || cfg.ServerAddress != "0.0.0.0:9000" || *cfg.MaxDimension != 2048 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for an explicit missing file")
	}
	if _, err := LoadConfig(writeConfig(t, "sizes: [1, 2")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestApplyBenchConfigRespectsFlags(t *testing.T) {
	runs := int64(5)
	seed := int64(1)
	cfgRuns := int64(9)
	cfgSeed := int64(123)
	cfg := Config{
		Sizes:   []int{8},
		Kernels: []string{"naive"},
		Runs:    &cfgRuns,
		Seed:    &cfgSeed,
		Output:  "json",
	}

	var got benchSettings
	cmd := &cli.Command{
		Name: "bench",
		Flags: []cli.Flag{
			&cli.Int64SliceFlag{Name: "sizes", Value: []int64{100}},
			&cli.StringSliceFlag{Name: "kernels", Value: []string{"parallel"}},
			&cli.Int64Flag{Name: "runs", Value: 5, Destination: &runs},
			&cli.Int64Flag{Name: "seed", Value: 1, Destination: &seed},
			&cli.StringFlag{Name: "output", Value: "text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			got = benchSettings{
				sizes:   toInts(cmd.Int64Slice("sizes")),
				kernels: cmd.StringSlice("kernels"),
				runs:    runs,
				seed:    seed,
				output:  cmd.String("output"),
			}
			applyBenchConfig(cmd, cfg, &got)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), []string{"bench", "--seed", "4", "--sizes", "64"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !slices.Equal(got.sizes, []int{64}) {
		t.Fatalf("flag sizes should win, got %v", got.sizes)
	}
	if got.seed != 4 {
		t.Fatalf("flag seed should win, got %d", got.seed)
	}
	if got.runs != 9 || got.output != "json" || !slices.Equal(got.kernels, []string{"naive"}) {
		t.Fatalf("config should fill unset flags, got %+v", got)
	}
}

func TestParseKernels(t *testing.T) {
	got, err := parseKernels([]string{"naive,transpose", " parallel ", ""})
	if err != nil {
		t.Fatal(err)
	}
	want := []gemm.Kernel{gemm.KernelNaive, gemm.KernelTransposed, gemm.KernelParallel}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, err := parseKernels([]string{"blocked"}); err == nil {
		t.Fatal("expected error for unknown kernel")
	}
}

func TestReadRequest(t *testing.T) {
	path := writeConfig(t, `{"kernel":"naive","n":2,"a":[1,2,3,4],"b":[5,6,7,8]}`)
	req, err := readRequest(path)
	if err != nil {
		t.Fatal(err)
	}
	if req.N != 2 || req.Kernel != "naive" || len(req.B) != 4 {
		t.Fatalf("unexpected request %+v", req)
	}
}

func TestApplyMaxDimension(t *testing.T) {
	cfgDim := int64(64)
	cfg := Config{MaxDimension: &cfgDim}

	run := func(args ...string) int64 {
		t.Helper()
		var maxDim int64
		cmd := &cli.Command{
			Name: "multiply",
			Flags: []cli.Flag{
				&cli.Int64Flag{Name: "max-dimension", Value: api.DefaultMaxDimension, Destination: &maxDim},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				applyMaxDimension(cmd, cfg, &maxDim)
				return nil
			},
		}
		if err := cmd.Run(context.Background(), append([]string{"multiply"}, args...)); err != nil {
			t.Fatalf("run: %v", err)
		}
		return maxDim
	}

	if got := run(); got != 64 {
		t.Fatalf("config max_dimension should apply, got %d", got)
	}
	if got := run("--max-dimension", "8"); got != 8 {
		t.Fatalf("flag should win over config, got %d", got)
	}
}

func TestMultiplyCommandUsesConfigMaxDimension(t *testing.T) {
	saved := fileConfig
	t.Cleanup(func() { fileConfig = saved })
	limit := int64(1)
	fileConfig = Config{MaxDimension: &limit}

	path := writeConfig(t, `{"kernel":"naive","n":2,"a":[1,2,3,4],"b":[5,6,7,8]}`)
	cmd := multiplyCmd()
	cmd.ExitErrHandler = func(context.Context, *cli.Command, error) {}
	err := cmd.Run(context.Background(), []string{"multiply", "--input", path})
	if err == nil || !strings.Contains(err.Error(), "n must be between 0 and 1") {
		t.Fatalf("expected the config limit to reject n=2, got %v", err)
	}
}

func TestCommandFlagDefaults(t *testing.T) {
	find := func(cmd *cli.Command, name string) cli.Flag {
		for _, f := range cmd.Flags {
			if slices.Contains(f.Names(), name) {
				return f
			}
		}
		return nil
	}

	for _, cmd := range []*cli.Command{multiplyCmd(), serveCmd()} {
		f, ok := find(cmd, "max-dimension").(*cli.Int64Flag)
		if !ok || f.Value != api.DefaultMaxDimension {
			t.Fatalf("%s: max-dimension default should be %d", cmd.Name, api.DefaultMaxDimension)
		}
	}
	if find(serveCmd(), "read-header-timeout") == nil || find(serveCmd(), "read-timeout") != nil {
		t.Fatal("serve should expose read-header-timeout only")
	}
}
