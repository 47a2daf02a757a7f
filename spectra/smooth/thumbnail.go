package smooth

import (
	"fmt"
	"math"
)

// Thumbnail reduces a spectrum for small previews: it smooths flux with
// sigma = factor samples, keeps every factor-th sample, drops factor
// samples at each end where the smoothing is dominated by the edge, and
// removes NaN samples.
func Thumbnail(wave, flux []float64, factor int) (x, y []float64, err error) {
	if factor < 1 {
		return nil, nil, fmt.Errorf("%w: %d", ErrInvalidFactor, factor)
	}
	if len(wave) != len(flux) {
		return nil, nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(wave), len(flux))
	}

	smoothed, err := Gaussian(flux, float64(factor))
	if err != nil {
		return nil, nil, err
	}

	n := (len(wave) + factor - 1) / factor
	if n <= 2*factor {
		return []float64{}, []float64{}, nil
	}
	x = make([]float64, 0, n-2*factor)
	y = make([]float64, 0, n-2*factor)
	for k := factor; k < n-factor; k++ {
		v := smoothed[k*factor]
		if math.IsNaN(v) {
			continue
		}
		x = append(x, wave[k*factor])
		y = append(y, v)
	}
	return x, y, nil
}
