// Package spectrum computes summary statistics of a single spectrum row.
package spectrum

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-spectra/spectra/noise"
)

// Stats holds per-row spectrum statistics. Samples with zero inverse
// variance count towards Length only.
type Stats struct {
	Length     int
	Good       int     // samples with ivar > 0 and finite flux
	Mean       float64 // inverse-variance weighted mean flux of good samples
	MeanSNR    float64
	MedianSNR  float64
	Min        float64 // finite flux only
	MinPos     int
	Max        float64
	MaxPos     int
	TotalIvar  float64
	GoodFrac   float64
	NoiseLevel float64 // 1/sqrt(TotalIvar/Good); 0 without good samples
}

// Calculate computes all statistics in a single pass plus one sort for the
// median SNR.
func Calculate(flux, ivar []float64) Stats {
	n := min(len(flux), len(ivar))
	st := Stats{Length: n, MinPos: -1, MaxPos: -1}
	if n == 0 {
		return st
	}

	var (
		weighted float64
		sumSNR   float64
		snr      = make([]float64, 0, n)
	)

	for i := 0; i < n; i++ {
		f := flux[i]
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		if st.MinPos < 0 || f < st.Min {
			st.Min, st.MinPos = f, i
		}
		if st.MaxPos < 0 || f > st.Max {
			st.Max, st.MaxPos = f, i
		}
		v := ivar[i]
		if v <= 0 {
			continue
		}
		st.Good++
		st.TotalIvar += v
		weighted += f * v
		s := f * math.Sqrt(v)
		sumSNR += s
		snr = append(snr, s)
	}

	if st.Good > 0 {
		st.Mean = weighted / st.TotalIvar
		st.MeanSNR = sumSNR / float64(st.Good)
		st.MedianSNR = noise.Median(snr)
		st.NoiseLevel = 1 / math.Sqrt(st.TotalIvar/float64(st.Good))
	}
	st.GoodFrac = float64(st.Good) / float64(n)
	return st
}

// PercentileRange returns the values at fractional ranks pmin and pmax of
// the finite elements of data, using floor indexing clamped to the last
// element. It returns (0, 0) when data has no finite element.
func PercentileRange(data []float64, pmin, pmax float64) (lo, hi float64) {
	dx := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			dx = append(dx, v)
		}
	}
	if len(dx) == 0 {
		return 0, 0
	}
	sort.Float64s(dx)
	imin := clampIndex(int(math.Floor(pmin*float64(len(dx)))), len(dx))
	imax := clampIndex(int(math.Floor(pmax*float64(len(dx)))), len(dx))
	return dx[imin], dx[imax]
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
