package band

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// ErrNonMonotonicGrid indicates a wavelength grid that is not strictly
// increasing.
var ErrNonMonotonicGrid = errors.New("band: wavelength grid is not strictly increasing")

// Grid is an ascending sequence of wavelength samples.
type Grid []float64

// Validate checks that the grid is non-empty, finite and strictly
// increasing.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return fmt.Errorf("%w: empty grid", ErrNonMonotonicGrid)
	}
	for i, w := range g {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("%w: non-finite sample %v at index %d", ErrNonMonotonicGrid, w, i)
		}
		if i > 0 && w <= g[i-1] {
			return fmt.Errorf("%w: sample %d (%v) <= sample %d (%v)", ErrNonMonotonicGrid, i, w, i-1, g[i-1])
		}
	}
	return nil
}

// First returns the bluest sample. The grid must not be empty.
func (g Grid) First() float64 { return g[0] }

// Last returns the reddest sample. The grid must not be empty.
func (g Grid) Last() float64 { return g[len(g)-1] }

// Fingerprint returns a 64-bit digest of the exact sample values. Two grids
// with equal fingerprints are treated as the same instrument configuration.
func (g Grid) Fingerprint() uint64 {
	d := xxhash.New()
	HashInto(d, g)
	return d.Sum64()
}

// HashInto feeds the little-endian IEEE-754 encoding of g into d.
func HashInto(d *xxhash.Digest, g Grid) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(g)))
	_, _ = d.Write(buf[:])
	for _, w := range g {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(w))
		_, _ = d.Write(buf[:])
	}
}
