package bench

import (
	"math"
	"time"
)

// summarize fills the statistics of r from its samples.
func summarize(r *Result) {
	if len(r.Samples) == 0 {
		return
	}
	r.Min = r.Samples[0]
	r.Max = r.Samples[0]
	var total time.Duration
	for _, s := range r.Samples {
		total += s
		r.Min = min(r.Min, s)
		r.Max = max(r.Max, s)
	}
	r.Mean = total / time.Duration(len(r.Samples))

	if len(r.Samples) > 1 {
		mean := float64(r.Mean)
		var sq float64
		for _, s := range r.Samples {
			d := float64(s) - mean
			sq += d * d
		}
		r.StdDev = time.Duration(math.Sqrt(sq / float64(len(r.Samples)-1)))
	}

	if r.Mean > 0 {
		flops := 2 * math.Pow(float64(r.N), 3)
		r.GFLOPS = flops / r.Mean.Seconds() / 1e9
	}
}
