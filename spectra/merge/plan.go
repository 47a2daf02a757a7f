package merge

import (
	"fmt"
	"math"
	"sort"

	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
)

// Slice is the retained half-open index range [Start, End) of one band.
type Slice struct {
	Band  band.Band
	Start int
	End   int
	NWave int
}

// Len returns the number of retained samples.
func (s Slice) Len() int { return s.End - s.Start }

// Plan is the midpoint stitch of one set of band grids.
type Plan struct {
	slices []Slice
	splits []float64
	wave   []float64
}

// NewPlan computes the stitch for grids. Only the configured bands are
// used; each of them must be present.
func NewPlan(grids map[band.Band][]float64, opts ...Option) (*Plan, error) {
	cfg := buildConfig(opts)

	for _, b := range cfg.bands {
		g, ok := grids[b]
		if !ok || g == nil {
			return nil, fmt.Errorf("%w: %v", spectra.ErrMissingBand, b)
		}
		if err := band.Grid(g).Validate(); err != nil {
			return nil, fmt.Errorf("band %v: %w", b, err)
		}
	}

	n := len(cfg.bands)
	p := &Plan{
		slices: make([]Slice, n),
		splits: make([]float64, 0, n-1),
	}
	for k := 1; k < n; k++ {
		blue, red := band.Grid(grids[cfg.bands[k-1]]), band.Grid(grids[cfg.bands[k]])
		if red.First() <= blue.First() || red.Last() <= blue.Last() {
			return nil, fmt.Errorf("%w: band %v does not lie redward of %v",
				spectra.ErrNonMonotonicGrid, cfg.bands[k], cfg.bands[k-1])
		}
		p.splits = append(p.splits, 0.5*(blue.Last()+red.First()))
	}

	total := 0
	for k, b := range cfg.bands {
		g := grids[b]
		lo, hi := math.Inf(-1), math.Inf(1)
		if k > 0 {
			lo = p.splits[k-1]
		}
		if k < n-1 {
			hi = p.splits[k]
		}
		s := Slice{Band: b, Start: 0, End: len(g), NWave: len(g)}
		if k > 0 {
			s.Start = sort.SearchFloat64s(g, lo)
		}
		if k < n-1 {
			s.End = sort.SearchFloat64s(g, hi)
		}
		if s.End < s.Start {
			s.End = s.Start
		}
		p.slices[k] = s
		total += s.Len()
	}

	p.wave = make([]float64, 0, total)
	for _, s := range p.slices {
		p.wave = append(p.wave, grids[s.Band][s.Start:s.End]...)
	}
	if err := band.Grid(p.wave).Validate(); err != nil {
		return nil, fmt.Errorf("stitched grid: %w", err)
	}
	return p, nil
}

// Wave returns the stitched wavelength grid. The slice must not be modified.
func (p *Plan) Wave() []float64 { return p.wave }

// Len returns the number of stitched samples.
func (p *Plan) Len() int { return len(p.wave) }

// Slices returns the retained range of every band, blue to red.
func (p *Plan) Slices() []Slice { return append([]Slice(nil), p.slices...) }

// Splits returns the midpoint wavelengths between adjacent bands.
func (p *Plan) Splits() []float64 { return append([]float64(nil), p.splits...) }

// Bands returns the stitched bands, blue to red.
func (p *Plan) Bands() []band.Band {
	out := make([]band.Band, len(p.slices))
	for i, s := range p.slices {
		out[i] = s.Band
	}
	return out
}

// Stitch concatenates one row given per band on the band grids.
func (p *Plan) Stitch(row map[band.Band][]float64) ([]float64, error) {
	return stitch(p, row)
}

// StitchMask concatenates one mask row.
func (p *Plan) StitchMask(row map[band.Band][]uint32) ([]uint32, error) {
	return stitch(p, row)
}

// StitchRows concatenates every row; all bands must hold the same number
// of rows.
func (p *Plan) StitchRows(rows map[band.Band][][]float64) ([][]float64, error) {
	nrow, err := p.rowCount(func(b band.Band) (int, bool) {
		r, ok := rows[b]
		return len(r), ok
	})
	if err != nil {
		return nil, err
	}
	out := make([][]float64, nrow)
	row := make(map[band.Band][]float64, len(p.slices))
	for i := 0; i < nrow; i++ {
		for _, s := range p.slices {
			row[s.Band] = rows[s.Band][i]
		}
		if out[i], err = stitch(p, row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

func (p *Plan) rowCount(count func(band.Band) (int, bool)) (int, error) {
	nrow := -1
	for _, s := range p.slices {
		n, ok := count(s.Band)
		if !ok {
			return 0, fmt.Errorf("%w: %v", spectra.ErrMissingBand, s.Band)
		}
		if nrow >= 0 && n != nrow {
			return 0, fmt.Errorf("%w: band %v has %d rows, want %d", spectra.ErrShapeMismatch, s.Band, n, nrow)
		}
		nrow = n
	}
	return nrow, nil
}

func stitch[T any](p *Plan, row map[band.Band][]T) ([]T, error) {
	out := make([]T, 0, len(p.wave))
	for _, s := range p.slices {
		x, ok := row[s.Band]
		if !ok {
			return nil, fmt.Errorf("%w: %v", spectra.ErrMissingBand, s.Band)
		}
		if len(x) != s.NWave {
			return nil, fmt.Errorf("%w: band %v has %d samples, grid has %d", spectra.ErrShapeMismatch, s.Band, len(x), s.NWave)
		}
		out = append(out, x[s.Start:s.End]...)
	}
	return out, nil
}
