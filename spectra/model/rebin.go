package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-spectra/spectra/band"
)

// ErrLengthMismatch indicates source wavelengths and fluxes of different
// lengths.
var ErrLengthMismatch = errors.New("model: wave and flux lengths differ")

// Resampler maps a flux density sampled on srcWave onto dstWave.
// Implementations must not modify their inputs.
type Resampler interface {
	Resample(dstWave, srcWave, srcFlux []float64) ([]float64, error)
}

// ResamplerFunc adapts a function to Resampler.
type ResamplerFunc func(dstWave, srcWave, srcFlux []float64) ([]float64, error)

// Resample calls f.
func (f ResamplerFunc) Resample(dstWave, srcWave, srcFlux []float64) ([]float64, error) {
	return f(dstWave, srcWave, srcFlux)
}

// FluxConserving averages the linearly interpolated source flux over each
// destination bin. Bin edges lie halfway between destination samples; the
// outer edges mirror the first and last half-steps. Flux outside the source
// coverage counts as zero, so integrated flux is preserved.
type FluxConserving struct{}

// Resample implements Resampler.
func (FluxConserving) Resample(dstWave, srcWave, srcFlux []float64) ([]float64, error) {
	if len(srcWave) != len(srcFlux) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(srcWave), len(srcFlux))
	}
	if err := band.Grid(srcWave).Validate(); err != nil {
		return nil, fmt.Errorf("source grid: %w", err)
	}
	if err := band.Grid(dstWave).Validate(); err != nil {
		return nil, fmt.Errorf("destination grid: %w", err)
	}

	cum := cumulative(srcWave, srcFlux)
	edges := binEdges(dstWave)
	out := make([]float64, len(dstWave))
	prev := integral(srcWave, srcFlux, cum, edges[0])
	for i := range out {
		next := integral(srcWave, srcFlux, cum, edges[i+1])
		out[i] = (next - prev) / (edges[i+1] - edges[i])
		prev = next
	}
	return out, nil
}

// cumulative returns the trapezoid integral of flux from x[0] to x[k].
func cumulative(x, f []float64) []float64 {
	c := make([]float64, len(x))
	for k := 1; k < len(x); k++ {
		c[k] = c[k-1] + 0.5*(f[k]+f[k-1])*(x[k]-x[k-1])
	}
	return c
}

// integral returns the integral of the linear interpolant from x[0] to w,
// clamped to the source coverage.
func integral(x, f, cum []float64, w float64) float64 {
	n := len(x)
	if n == 1 || w <= x[0] {
		return 0
	}
	if w >= x[n-1] {
		return cum[n-1]
	}
	k := sort.SearchFloat64s(x, w) - 1
	t := (w - x[k]) / (x[k+1] - x[k])
	fw := f[k] + t*(f[k+1]-f[k])
	return cum[k] + 0.5*(f[k]+fw)*(w-x[k])
}

func binEdges(w []float64) []float64 {
	n := len(w)
	edges := make([]float64, n+1)
	if n == 1 {
		edges[0], edges[1] = w[0]-0.5, w[0]+0.5
		return edges
	}
	for i := 1; i < n; i++ {
		edges[i] = 0.5 * (w[i-1] + w[i])
	}
	edges[0] = w[0] - (edges[1] - w[0])
	edges[n] = w[n-1] + (w[n-1] - edges[n-1])
	return edges
}
