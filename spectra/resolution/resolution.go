// Package resolution applies band-diagonal spectral resolution matrices.
//
// A resolution matrix R maps a model sampled on a band grid to what the
// instrument records: observed = R · model. Only a narrow band around the
// diagonal is non-zero, so R is stored as ndiag diagonals of length nwave.
// Diagonal k has offset ndiag/2 - k and column-aligned storage:
//
//	R[j-offset(k)][j] = data[k][j]
//
// which matches the usual sparse-diagonal layout of spectroscopic
// pipelines. ndiag must be odd.
package resolution

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrEvenDiagonals indicates an even number of diagonals.
	ErrEvenDiagonals = errors.New("resolution: number of diagonals must be odd")
	// ErrShape indicates diagonals of unequal length or an input vector of
	// the wrong length.
	ErrShape = errors.New("resolution: shape mismatch")
)

// Matrix is a square band-diagonal resolution matrix.
type Matrix struct {
	data    [][]float64
	offsets []int
	nwave   int
}

// New wraps data ([ndiag][nwave]) without copying it.
func New(data [][]float64) (*Matrix, error) {
	ndiag := len(data)
	if ndiag%2 == 0 {
		return nil, fmt.Errorf("%w: %d", ErrEvenDiagonals, ndiag)
	}
	nwave := len(data[0])
	for k, d := range data {
		if len(d) != nwave {
			return nil, fmt.Errorf("%w: diagonal %d has %d samples, want %d", ErrShape, k, len(d), nwave)
		}
	}
	return &Matrix{data: data, offsets: Offsets(ndiag), nwave: nwave}, nil
}

// Offsets returns the diagonal offsets ndiag/2, ..., -ndiag/2.
func Offsets(ndiag int) []int {
	half := ndiag / 2
	out := make([]int, ndiag)
	for k := range out {
		out[k] = half - k
	}
	return out
}

// Size returns the matrix dimension.
func (m *Matrix) Size() int { return m.nwave }

// At returns element (i, j).
func (m *Matrix) At(i, j int) float64 {
	off := j - i
	k := len(m.offsets)/2 - off
	if k < 0 || k >= len(m.offsets) {
		return 0
	}
	return m.data[k][j]
}

// Apply returns R · x.
func (m *Matrix) Apply(x []float64) ([]float64, error) {
	if len(x) != m.nwave {
		return nil, fmt.Errorf("%w: vector has %d samples, matrix %d", ErrShape, len(x), m.nwave)
	}
	out := make([]float64, m.nwave)
	temp := make([]float64, m.nwave)
	for k, off := range m.offsets {
		// Row i reads column j = i + off.
		lo, hi := 0, m.nwave
		if off > 0 {
			hi = m.nwave - off
		} else {
			lo = -off
		}
		if hi <= lo {
			continue
		}
		n := hi - lo
		vecmath.MulBlock(temp[:n], m.data[k][lo+off:hi+off], x[lo+off:hi+off])
		vecmath.AddBlockInPlace(out[lo:hi], temp[:n])
	}
	return out, nil
}
