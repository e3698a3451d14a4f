package efficiency

import (
	"math"
	"sort"
)

const (
	idxMin = 70
	idxMax = 130
)

// Idx maps a z-score onto the 70..130 index scale, rounded to one decimal.
func Idx(z float64) float64 {
	return clamp(idxMin, idxMax, round1(100+10*z))
}

// zScores standardizes values using the sample standard deviation
// (denominator max(1, n-1)). A zero or non-finite deviation yields 0 for
// every member, and any z that is not finite is reported as 0.
func zScores(values map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(values))
	if len(values) == 0 {
		return out
	}

	// Sum in key order so results are reproducible run to run.
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var total float64
	for _, k := range keys {
		total += values[k]
	}
	mean := total / float64(len(keys))

	var sq float64
	for _, k := range keys {
		d := values[k] - mean
		sq += d * d
	}
	sd := math.Sqrt(sq / math.Max(1, float64(len(keys)-1)))

	degenerate := sd == 0 || !finite(sd) || !finite(mean)
	for _, k := range keys {
		z := 0.0
		if !degenerate {
			z = (values[k] - mean) / sd
		}
		if !finite(z) {
			z = 0
		}
		out[k] = z
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// meanOf averages the values that are present; none present yields 0.
func meanOf(values ...*float64) float64 {
	var total float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		total += *v
		n++
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
