package model

import (
	"fmt"

	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
	"github.com/cwbudde/algo-spectra/spectra/merge"
	"github.com/cwbudde/algo-spectra/spectra/resolution"
	"github.com/cwbudde/algo-spectra/spectra/wavelength"
)

// Template is the best-fit model of one target: a rest-frame spectrum and
// the redshift it was fitted at.
type Template struct {
	TargetID int64
	Wave     []float64
	Flux     []float64
	Z        float64
}

// Curve holds one stitched model row per spectra row.
type Curve struct {
	Wave      []float64
	TargetIDs []int64
	Flux      [][]float64

	// Bands holds the per-band model rows before stitching.
	Bands map[band.Band][][]float64
}

type config struct {
	resampler Resampler
	plan      *merge.Plan
	mergeOpts []merge.Option
}

// Option configures Build.
type Option func(*config)

// WithResampler replaces the FluxConserving default.
func WithResampler(r Resampler) Option {
	return func(cfg *config) {
		if r != nil {
			cfg.resampler = r
		}
	}
}

// WithPlan stitches with an existing plan instead of building one.
func WithPlan(p *merge.Plan) Option {
	return func(cfg *config) {
		cfg.plan = p
	}
}

// WithMergeOptions passes options to the plan built by Build.
func WithMergeOptions(opts ...merge.Option) Option {
	return func(cfg *config) {
		cfg.mergeOpts = append(cfg.mergeOpts, opts...)
	}
}

// Build evaluates templates on the grids of s and stitches them. There must
// be exactly one template per row of s and every row's target id must have
// a template; the result follows the row order of s.
func Build(s *spectra.Spectra, templates []Template, opts ...Option) (*Curve, error) {
	cfg := config{resampler: FluxConserving{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	if len(templates) != s.NumRows() {
		return nil, fmt.Errorf("%w: %d templates for %d rows", spectra.ErrTargetCountMismatch, len(templates), s.NumRows())
	}

	byID := make(map[int64]*Template, len(templates))
	for i := range templates {
		tx := &templates[i]
		if len(tx.Wave) != len(tx.Flux) {
			return nil, fmt.Errorf("template of target %d: %w: %d vs %d",
				tx.TargetID, ErrLengthMismatch, len(tx.Wave), len(tx.Flux))
		}
		byID[tx.TargetID] = tx
	}

	plan := cfg.plan
	if plan == nil {
		var err error
		if plan, err = merge.NewPlan(s.Grids(), cfg.mergeOpts...); err != nil {
			return nil, err
		}
	}

	nrow := s.NumRows()
	curve := &Curve{
		Wave:      append([]float64(nil), plan.Wave()...),
		TargetIDs: append([]int64(nil), s.TargetIDs...),
		Bands:     make(map[band.Band][][]float64, len(s.Bands)),
	}
	for _, b := range plan.Bands() {
		curve.Bands[b] = make([][]float64, nrow)
	}

	for row, id := range s.TargetIDs {
		tx, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: target %d has no template", spectra.ErrTargetCountMismatch, id)
		}
		observed := wavelength.Redshift(tx.Wave, tx.Z)
		for _, b := range plan.Bands() {
			d, ok := s.Bands[b]
			if !ok {
				return nil, fmt.Errorf("%w: %v", spectra.ErrMissingBand, b)
			}
			mx, err := cfg.resampler.Resample(d.Wave, observed, tx.Flux)
			if err != nil {
				return nil, fmt.Errorf("target %d band %v: %w", id, b, err)
			}
			if len(mx) != len(d.Wave) {
				return nil, fmt.Errorf("%w: resampler returned %d samples for band %v with %d",
					spectra.ErrShapeMismatch, len(mx), b, len(d.Wave))
			}
			if d.Resolution != nil {
				r, err := resolution.New(d.Resolution[row])
				if err != nil {
					return nil, fmt.Errorf("target %d band %v: %w", id, b, err)
				}
				if mx, err = r.Apply(mx); err != nil {
					return nil, fmt.Errorf("target %d band %v: %w", id, b, err)
				}
			}
			curve.Bands[b][row] = mx
		}
	}

	var err error
	if curve.Flux, err = plan.StitchRows(curve.Bands); err != nil {
		return nil, err
	}
	return curve, nil
}
