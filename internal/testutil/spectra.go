package testutil

import (
	"math"
	"math/rand"

	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
)

// LinearGrid returns n wavelengths starting at start with constant step.
func LinearGrid(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

// Constant returns a slice of length n filled with value.
func Constant(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

// EmissionLine evaluates a flat continuum plus one Gaussian line on wave.
func EmissionLine(wave []float64, continuum, amplitude, center, sigma float64) []float64 {
	out := make([]float64, len(wave))
	for i, w := range wave {
		d := (w - center) / sigma
		out[i] = continuum + amplitude*math.Exp(-0.5*d*d)
	}
	return out
}

// DeterministicNoise perturbs x with uniform noise of the given amplitude
// using a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, x []float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + (rng.Float64()*2-1)*amplitude
	}
	return out
}

// DeltaResolution returns ndiag diagonals whose central diagonal is one and
// all others zero, i.e. an identity resolution matrix.
func DeltaResolution(ndiag, nwave int) [][]float64 {
	out := make([][]float64, ndiag)
	for k := range out {
		out[k] = make([]float64, nwave)
	}
	for j := 0; j < nwave; j++ {
		out[ndiag/2][j] = 1
	}
	return out
}

// Grids returns three overlapping band grids shaped like a three-arm
// spectrograph, with n samples per band.
func Grids(n int) map[band.Band][]float64 {
	return map[band.Band][]float64{
		band.Blue:      LinearGrid(3600, 2, n),
		band.Red:       LinearGrid(3600+2*float64(n)-21, 2, n),
		band.InfraredZ: LinearGrid(3600+4*float64(n)-43, 2, n),
	}
}

// SyntheticSpectra builds rows of three-band spectra for the given target
// id column. Each row gets deterministic noise, unit ivar, an identity
// resolution with ndiag diagonals and a zero mask.
func SyntheticSpectra(ids []int64, nwave, ndiag int) *spectra.Spectra {
	s := &spectra.Spectra{
		TargetIDs: append([]int64(nil), ids...),
		Bands:     make(map[band.Band]*spectra.BandData),
	}
	for b, wave := range Grids(nwave) {
		d := &spectra.BandData{Wave: wave}
		for row, id := range ids {
			clean := EmissionLine(wave, float64(id%7)+1, 5, wave[nwave/2], 6)
			d.Flux = append(d.Flux, DeterministicNoise(int64(row)*10+int64(b), 0.5, clean))
			d.Ivar = append(d.Ivar, Constant(1, nwave))
			d.Resolution = append(d.Resolution, DeltaResolution(ndiag, nwave))
			d.Mask = append(d.Mask, make([]uint32, nwave))
		}
		s.Bands[b] = d
	}
	return s
}
