package features

import (
	"math"
	"sort"
)

// summary holds the descriptive statistics available for a feature series.
// Every field is 0 when the series is too short to define it.
type summary struct {
	Mean   float64
	Median float64
	Std    float64
	Gini   float64
	IQR    float64
}

func describe(xs []float64) summary {
	if len(xs) == 0 {
		return summary{}
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	return summary{
		Mean:   mean(xs),
		Median: quantile(sorted, 0.5),
		Std:    sampleStd(xs),
		Gini:   gini(sorted),
		IQR:    quantile(sorted, 0.75) - quantile(sorted, 0.25),
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStd is the n-1 standard deviation
func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

// quantile interpolates linearly between the closest ranks of a sorted series
func quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// gini computes the Gini coefficient of a sorted series, ignoring zeros
func gini(sorted []float64) float64 {
	values := make([]float64, 0, len(sorted))
	for _, x := range sorted {
		if x != 0 {
			values = append(values, x)
		}
	}
	n := len(values)
	if n == 0 {
		return 0
	}

	var weighted, total float64
	for i, x := range values {
		weighted += float64(2*(i+1)-n-1) * x
		total += x
	}
	if total == 0 {
		return 0
	}
	return weighted / (float64(n) * total)
}

// round3 rounds half to even on the third decimal
func round3(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.RoundToEven(x*1000) / 1000
}
