package smooth

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
)

var (
	// ErrInvalidSigma indicates a NaN or infinite standard deviation.
	ErrInvalidSigma = errors.New("smooth: invalid sigma")
	// ErrInvalidFactor indicates a thumbnail factor below one.
	ErrInvalidFactor = errors.New("smooth: invalid decimation factor")
	// ErrLengthMismatch indicates wave and flux of different lengths.
	ErrLengthMismatch = errors.New("smooth: wave and flux lengths differ")
)

// Truncate is the kernel half-width in standard deviations.
const Truncate = 4.0

// fftThreshold is the kernel length from which FFT convolution is used.
const fftThreshold = 64

// Kernel returns the normalized Gaussian kernel for sigma, of length
// 2·radius+1 with radius = round(Truncate·sigma).
func Kernel(sigma float64) []float64 {
	radius := int(Truncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	sum := 0.0
	for i := range k {
		x := float64(i - radius)
		k[i] = math.Exp(-0.5 * x * x / (sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// Gaussian smooths x with a Gaussian of standard deviation sigma samples.
// sigma <= 0 returns a copy of x.
func Gaussian(x []float64, sigma float64) ([]float64, error) {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSigma, sigma)
	}
	out := make([]float64, len(x))
	if sigma <= 0 || len(x) == 0 {
		copy(out, x)
		return out, nil
	}

	kernel := Kernel(sigma)
	radius := len(kernel) / 2
	padded := extendNearest(x, radius)

	if len(kernel) < fftThreshold {
		for i := range out {
			acc := 0.0
			for k, w := range kernel {
				acc += w * padded[i+k]
			}
			out[i] = acc
		}
		return out, nil
	}

	full, err := fftConvolve(padded, kernel)
	if err != nil {
		return nil, err
	}
	copy(out, full[2*radius:2*radius+len(x)])
	return out, nil
}

func extendNearest(x []float64, radius int) []float64 {
	n := len(x)
	out := make([]float64, n+2*radius)
	for i := 0; i < radius; i++ {
		out[i] = x[0]
		out[radius+n+i] = x[n-1]
	}
	copy(out[radius:], x)
	return out
}

// fftConvolve returns the full linear convolution of a and b.
func fftConvolve(a, b []float64) ([]float64, error) {
	resultLen := len(a) + len(b) - 1
	fftSize := nextPowerOf2(resultLen)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("smooth: failed to create FFT plan: %w", err)
	}

	fa := make([]complex128, fftSize)
	fb := make([]complex128, fftSize)
	for i, v := range a {
		fa[i] = complex(v, 0)
	}
	for i, v := range b {
		fb[i] = complex(v, 0)
	}

	if err := plan.Forward(fa, fa); err != nil {
		return nil, fmt.Errorf("smooth: forward FFT failed: %w", err)
	}
	if err := plan.Forward(fb, fb); err != nil {
		return nil, fmt.Errorf("smooth: forward FFT failed: %w", err)
	}
	for i := range fa {
		fa[i] *= fb[i]
	}
	if err := plan.Inverse(fa, fa); err != nil {
		return nil, fmt.Errorf("smooth: inverse FFT failed: %w", err)
	}

	out := make([]float64, resultLen)
	for i := range out {
		out[i] = real(fa[i])
	}
	return out, nil
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
