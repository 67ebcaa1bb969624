package bench

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/samcharles93/gemmbench/internal/gemm"
	"github.com/samcharles93/gemmbench/internal/sysinfo"
)

// Result is the timing summary of one (kernel, n, threads) case.
type Result struct {
	Kernel  gemm.Kernel     `json:"kernel"`
	N       int             `json:"n"`
	Threads int             `json:"threads"`
	Samples []time.Duration `json:"samples_ns"`
	Mean    time.Duration   `json:"mean_ns"`
	Min     time.Duration   `json:"min_ns"`
	Max     time.Duration   `json:"max_ns"`
	StdDev  time.Duration   `json:"stddev_ns"`
	GFLOPS  float64         `json:"gflops"`
}

type Report struct {
	ID         string       `json:"id"`
	Version    string       `json:"version"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Seed       int64        `json:"seed"`
	Warmup     int          `json:"warmup"`
	System     sysinfo.Info `json:"system"`
	Results    []Result     `json:"results"`
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteText prints a header and one aligned row per result.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintln(&b, "=== gemmbench ===")
	fmt.Fprintf(&b, "Run:        %s\n", r.ID)
	fmt.Fprintf(&b, "Version:    %s\n", r.Version)
	fmt.Fprintf(&b, "Platform:   %s/%s %s\n", r.System.GOOS, r.System.GOARCH, r.System.GoVersion)
	fmt.Fprintf(&b, "CPUs:       %d\n", r.System.CPUs)
	fmt.Fprintf(&b, "GOMAXPROCS: %d\n", r.System.GOMAXPROCS)
	if feats := r.System.Enabled(); len(feats) > 0 {
		fmt.Fprintf(&b, "Features:   %s\n", strings.Join(feats, " "))
	}
	fmt.Fprintf(&b, "Seed:       %d\n", r.Seed)
	fmt.Fprintf(&b, "Warmup:     %d runs\n", r.Warmup)
	fmt.Fprintln(&b)

	fmt.Fprintf(&b, "%-20s %6s %7s %5s %12s %12s %12s %12s %9s\n",
		"Kernel", "N", "Threads", "Runs", "Mean", "Min", "Max", "StdDev", "GFLOPS")
	for _, res := range r.Results {
		fmt.Fprintf(&b, "%-20s %6d %7d %5d %12s %12s %12s %12s %9.3f\n",
			res.Kernel, res.N, res.Threads, len(res.Samples),
			round(res.Mean), round(res.Min), round(res.Max), round(res.StdDev), res.GFLOPS)
	}
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "\nTotal:      %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func round(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}
