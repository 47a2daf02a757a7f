package merge

import (
	"fmt"

	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
)

// Merged is a set of rows on one stitched wavelength grid. Mask is nil
// unless every stitched band carries one. Resolution is not carried over.
type Merged struct {
	Wave      []float64
	TargetIDs []int64
	Flux      [][]float64
	Ivar      [][]float64
	Mask      [][]uint32
}

// NumRows returns the number of rows.
func (m *Merged) NumRows() int { return len(m.Flux) }

// Merge validates s, builds a plan for its grids and stitches every row.
func Merge(s *spectra.Spectra, opts ...Option) (*Merged, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	p, err := NewPlan(s.Grids(), opts...)
	if err != nil {
		return nil, err
	}
	return Apply(p, s)
}

// Apply stitches every row of s with an existing plan. The plan must have
// been built from the grids of s.
func Apply(p *Plan, s *spectra.Spectra) (*Merged, error) {
	flux := make(map[band.Band][][]float64, len(p.slices))
	ivar := make(map[band.Band][][]float64, len(p.slices))
	withMask := true
	for _, sl := range p.slices {
		d, ok := s.Bands[sl.Band]
		if !ok {
			return nil, fmt.Errorf("%w: %v", spectra.ErrMissingBand, sl.Band)
		}
		if len(d.Wave) != sl.NWave {
			return nil, fmt.Errorf("%w: band %v grid has %d samples, plan expects %d",
				spectra.ErrShapeMismatch, sl.Band, len(d.Wave), sl.NWave)
		}
		flux[sl.Band] = d.Flux
		ivar[sl.Band] = d.Ivar
		withMask = withMask && d.Mask != nil
	}

	m := &Merged{
		Wave:      append([]float64(nil), p.wave...),
		TargetIDs: append([]int64(nil), s.TargetIDs...),
	}
	var err error
	if m.Flux, err = p.StitchRows(flux); err != nil {
		return nil, fmt.Errorf("flux: %w", err)
	}
	if m.Ivar, err = p.StitchRows(ivar); err != nil {
		return nil, fmt.Errorf("ivar: %w", err)
	}
	if len(m.Flux) != len(m.TargetIDs) {
		return nil, fmt.Errorf("%w: %d rows, %d target ids", spectra.ErrShapeMismatch, len(m.Flux), len(m.TargetIDs))
	}

	if withMask {
		m.Mask = make([][]uint32, len(m.Flux))
		row := make(map[band.Band][]uint32, len(p.slices))
		for i := range m.Mask {
			for _, sl := range p.slices {
				row[sl.Band] = s.Bands[sl.Band].Mask[i]
			}
			if m.Mask[i], err = p.StitchMask(row); err != nil {
				return nil, fmt.Errorf("mask row %d: %w", i, err)
			}
		}
	}
	return m, nil
}
