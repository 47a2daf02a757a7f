package spectra

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-spectra/spectra/band"
)

// Errors shared by the coaddition packages. Callers match them with
// errors.Is; the wrapped message carries the offending band or row.
var (
	// ErrShapeMismatch indicates disagreeing array dimensions.
	ErrShapeMismatch = errors.New("spectra: shape mismatch")
	// ErrEmptySelection indicates that no rows matched a target or selection.
	ErrEmptySelection = errors.New("spectra: empty selection")
	// ErrMissingBand indicates that a required band is absent.
	ErrMissingBand = errors.New("spectra: missing band")
	// ErrNonMonotonicGrid indicates a wavelength grid that is not strictly
	// increasing.
	ErrNonMonotonicGrid = band.ErrNonMonotonicGrid
	// ErrNegativeIvar indicates an inverse-variance sample below zero.
	ErrNegativeIvar = errors.New("spectra: negative inverse variance")
	// ErrInvalidIvar indicates a NaN or infinite inverse-variance sample.
	ErrInvalidIvar = errors.New("spectra: non-finite inverse variance")
	// ErrTargetCountMismatch indicates model rows that cannot be aligned
	// with spectra rows.
	ErrTargetCountMismatch = errors.New("spectra: model/spectra target mismatch")
)

// ValidateIvar checks that every sample of ivar is finite and not negative.
// The error names the first offending sample.
func ValidateIvar(ivar []float64) error {
	for j, v := range ivar {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			return fmt.Errorf("%w: sample %d is %v", ErrInvalidIvar, j, v)
		case v < 0:
			return fmt.Errorf("%w: sample %d is %v", ErrNegativeIvar, j, v)
		}
	}
	return nil
}
