// Package noise derives per-sample noise and signal-to-noise from inverse
// variance.
//
// A zero inverse variance means "no information". Such samples never
// produce NaN or Inf: Sigma maps them to a caller-chosen sentinel, and the
// SNR helpers treat them as zero signal-to-noise or skip them.
package noise

import (
	"math"
	"sort"
)

// DefaultSentinel is the noise reported for zero-weight samples.
const DefaultSentinel = 0.0

// Sigma returns 1/sqrt(ivar) where ivar > 0 and sentinel elsewhere.
func Sigma(ivar []float64, sentinel float64) []float64 {
	out := make([]float64, len(ivar))
	for i, v := range ivar {
		if v > 0 {
			out[i] = 1 / math.Sqrt(v)
		} else {
			out[i] = sentinel
		}
	}
	return out
}

// SigmaRows applies Sigma to every row.
func SigmaRows(ivar [][]float64, sentinel float64) [][]float64 {
	out := make([][]float64, len(ivar))
	for i, row := range ivar {
		out[i] = Sigma(row, sentinel)
	}
	return out
}

// SNR returns flux·sqrt(ivar) per sample; zero-weight samples yield 0.
func SNR(flux, ivar []float64) []float64 {
	n := min(len(flux), len(ivar))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		if ivar[i] > 0 {
			out[i] = flux[i] * math.Sqrt(ivar[i])
		}
	}
	return out
}

// MedianSNR returns the median of flux·sqrt(ivar) over samples with
// ivar > 0 and finite flux. It returns 0 when no sample qualifies.
func MedianSNR(flux, ivar []float64) float64 {
	n := min(len(flux), len(ivar))
	vals := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if ivar[i] > 0 && !math.IsNaN(flux[i]) && !math.IsInf(flux[i], 0) {
			vals = append(vals, flux[i]*math.Sqrt(ivar[i]))
		}
	}
	return Median(vals)
}

// Median returns the median of x, or 0 for an empty slice. x is not
// modified.
func Median(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	s := append([]float64(nil), x...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return 0.5 * (s[mid-1] + s[mid])
}
