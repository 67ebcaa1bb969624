// Package sysinfo describes the machine a benchmark ran on.
package sysinfo

import (
	"runtime"
	"slices"

	"golang.org/x/sys/cpu"
)

type Info struct {
	GoVersion  string          `json:"go_version"`
	GOOS       string          `json:"go_os"`
	GOARCH     string          `json:"go_arch"`
	CPUs       int             `json:"cpus"`
	GOMAXPROCS int             `json:"gomaxprocs"`
	Features   map[string]bool `json:"features"`
}

func Collect() Info {
	return Info{
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
		CPUs:       runtime.NumCPU(),
		GOMAXPROCS: runtime.GOMAXPROCS(0),
		Features:   features(runtime.GOARCH),
	}
}

func features(arch string) map[string]bool {
	switch arch {
	case "amd64", "386":
		return map[string]bool{
			"SSE41":    cpu.X86.HasSSE41,
			"SSE42":    cpu.X86.HasSSE42,
			"AVX":      cpu.X86.HasAVX,
			"AVX2":     cpu.X86.HasAVX2,
			"FMA":      cpu.X86.HasFMA,
			"AVX512F":  cpu.X86.HasAVX512F,
			"AVX512BW": cpu.X86.HasAVX512BW,
		}
	case "arm64":
		return map[string]bool{
			"FP":      cpu.ARM64.HasFP,
			"ASIMD":   cpu.ARM64.HasASIMD,
			"ASIMDHP": cpu.ARM64.HasASIMDHP,
			"SVE":     cpu.ARM64.HasSVE,
		}
	default:
		return map[string]bool{}
	}
}

// Enabled returns the names of the detected features, sorted.
func (i Info) Enabled() []string {
	out := make([]string, 0, len(i.Features))
	for name, ok := range i.Features {
		if ok {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
