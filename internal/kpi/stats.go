package kpi

import (
	"math"
	"slices"

	"profit-dashboard/internal/models"
)

func mean(values []float64) models.NullFloat {
	if len(values) == 0 {
		return models.NullFloat{}
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return models.Float(sum / float64(len(values)))
}

// sampleStdDev uses the n-1 denominator. ok is false below two values.
func sampleStdDev(values []float64) (sd float64, ok bool) {
	if len(values) < 2 {
		return 0, false
	}
	m := mean(values).Float64
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1)), true
}

// quantile interpolates linearly between closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

func spread(values []float64) models.Spread {
	if len(values) == 0 {
		return models.Spread{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return models.Spread{
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Valid:  true,
	}
}
