// Package pipeline runs the batch coaddition of one spectra document:
// optional exposure coaddition per target, band merging, noise estimates,
// optional model curves and optional thumbnails.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-spectra/internal/config"
	"github.com/cwbudde/algo-spectra/internal/specio"
	"github.com/cwbudde/algo-spectra/internal/telemetry"
	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
	"github.com/cwbudde/algo-spectra/spectra/coadd"
	"github.com/cwbudde/algo-spectra/spectra/merge"
	"github.com/cwbudde/algo-spectra/spectra/model"
	"github.com/cwbudde/algo-spectra/spectra/noise"
	"github.com/cwbudde/algo-spectra/spectra/smooth"
	"github.com/cwbudde/algo-spectra/spectra/wavelength"
)

// SkipError reports a target selection that matched nothing. Callers
// usually print it and carry on with the next input.
type SkipError struct {
	Targets []int64
	Err     error
}

func (e *SkipError) Error() string {
	if len(e.Targets) == 0 {
		return fmt.Sprintf("nothing to coadd: %v", e.Err)
	}
	return fmt.Sprintf("nothing to coadd for targets %v: %v", e.Targets, e.Err)
}

func (e *SkipError) Unwrap() error { return e.Err }

// Input is one batch.
type Input struct {
	Spectra   *spectra.Spectra
	Templates []model.Template // optional, one per target
	Targets   []int64          // optional selection, in output order

	// Start and Count restrict the input to rows [Start, Start+Count)
	// before any target selection. Count 0 reads through the last row.
	Start int
	Count int
}

// Product is the result of Run.
type Product struct {
	// Coadded holds the per-band spectra that were merged: one row per
	// target when coaddition is enabled, else the selected input rows.
	Coadded    *spectra.Spectra
	Merged     *merge.Merged
	Sigma      [][]float64
	Model      *model.Curve
	Thumbnails []specio.Thumbnail
}

// Document converts the product to its interchange form.
func (p *Product) Document() *specio.Product {
	doc := &specio.Product{
		Wave:       p.Merged.Wave,
		TargetIDs:  p.Merged.TargetIDs,
		Flux:       p.Merged.Flux,
		Ivar:       p.Merged.Ivar,
		Sigma:      p.Sigma,
		Mask:       p.Merged.Mask,
		Thumbnails: p.Thumbnails,
	}
	if p.Model != nil {
		doc.Model = p.Model.Flux
	}
	return doc
}

// Pipeline runs batches with one configuration. It is safe for concurrent
// use; merge plans are shared between runs.
type Pipeline struct {
	cfg     config.Config
	bands   []band.Band
	logger  *slog.Logger
	metrics *telemetry.Registry
	cache   *merge.Cache
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records into r. The default is a private registry.
func WithMetrics(r *telemetry.Registry) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.metrics = r
		}
	}
}

// New validates cfg and returns a pipeline.
func New(cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bands, err := cfg.BandList()
	if err != nil {
		return nil, err
	}
	p := &Pipeline{
		cfg:     cfg,
		bands:   bands,
		logger:  slog.New(slog.DiscardHandler),
		metrics: telemetry.NewRegistry(),
		cache:   merge.NewCache(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Metrics returns the registry the pipeline records into.
func (p *Pipeline) Metrics() *telemetry.Registry { return p.metrics }

// Run processes one batch.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Product, error) {
	prod, err := p.run(ctx, in)
	var skip *SkipError
	if errors.As(err, &skip) {
		p.metrics.InputsSkipped.Inc()
	}
	return prod, err
}

func (p *Pipeline) run(ctx context.Context, in Input) (*Product, error) {
	if in.Spectra == nil {
		return nil, fmt.Errorf("%w: no spectra", spectra.ErrEmptySelection)
	}
	start := time.Now()
	if err := in.Spectra.Validate(); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}
	p.metrics.ObserveStage("validate", start)
	p.logger.Debug("input validated",
		"rows", in.Spectra.NumRows(),
		"bands", in.Spectra.BandList())

	window, err := rowWindow(in)
	if err != nil {
		return nil, err
	}
	if p.cfg.AirWavelengths {
		window = vacuumGrids(window)
	}

	selected, err := p.selectRows(ctx, window, in.Targets)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	plan, hit, err := p.cache.Plan(selected.Grids(), merge.WithBands(p.bands...))
	if err != nil {
		return nil, fmt.Errorf("merge plan: %w", err)
	}
	p.metrics.PlanLookup(hit)
	merged, err := merge.Apply(plan, selected)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	p.metrics.ObserveStage("merge", start)
	p.metrics.RowsProcessed.Set(float64(merged.NumRows()))
	p.logger.Info("bands merged",
		"rows", merged.NumRows(),
		"samples", len(merged.Wave),
		"splits", plan.Splits(),
		"plan_cached", hit)

	prod := &Product{
		Coadded: selected,
		Merged:  merged,
		Sigma:   noise.SigmaRows(merged.Ivar, p.cfg.NoiseSentinel),
	}

	if len(in.Templates) > 0 {
		start = time.Now()
		templates, err := alignTemplates(selected.TargetIDs, in.Templates)
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		if prod.Model, err = model.Build(selected, templates, model.WithPlan(plan)); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		p.metrics.ObserveStage("model", start)
		p.logger.Info("model curves built", "rows", len(prod.Model.Flux))
	}

	if p.cfg.ThumbFactor > 0 {
		start = time.Now()
		if prod.Thumbnails, err = thumbnails(merged, p.cfg.ThumbFactor); err != nil {
			return nil, fmt.Errorf("thumbnails: %w", err)
		}
		p.metrics.ObserveStage("thumbnail", start)
	}

	if p.logger.Enabled(ctx, slog.LevelDebug) {
		for i, id := range merged.TargetIDs {
			p.logger.Debug("target merged",
				"target", id,
				"median_snr", noise.MedianSNR(merged.Flux[i], merged.Ivar[i]))
		}
	}
	return prod, nil
}

// selectRows applies the target selection and, when enabled, coadds.
func (p *Pipeline) selectRows(ctx context.Context, s *spectra.Spectra, targets []int64) (*spectra.Spectra, error) {
	if !p.cfg.Coadd {
		if len(targets) == 0 {
			return s, nil
		}
		index := s.Index()
		var rows []int
		for _, id := range targets {
			r, err := index.Rows(id)
			if err != nil {
				return nil, &SkipError{Targets: targets, Err: err}
			}
			rows = append(rows, r...)
		}
		return s.SelectRows(rows)
	}

	start := time.Now()
	opts := []coadd.Option{
		coadd.WithWorkers(p.cfg.Workers),
		coadd.WithObserver(p.observe),
	}
	if len(targets) > 0 {
		opts = append(opts, coadd.WithTargets(targets...))
	}
	out, err := coadd.Targets(ctx, s, opts...)
	if err != nil {
		if errors.Is(err, spectra.ErrEmptySelection) {
			return nil, &SkipError{Targets: targets, Err: err}
		}
		return nil, fmt.Errorf("coadd: %w", err)
	}
	p.metrics.TargetsCoadded.Add(float64(out.NumRows()))
	p.metrics.ObserveStage("coadd", start)
	p.logger.Info("exposures coadded",
		"rows_in", s.NumRows(),
		"targets", out.NumRows(),
		"workers", p.cfg.Workers)
	return out, nil
}

func (p *Pipeline) observe(st coadd.Stats) {
	name := st.Band.String()
	p.metrics.ExposuresCombined.WithLabelValues(name).Add(float64(st.Exposures))
	if st.ZeroWeight > 0 {
		p.metrics.ZeroWeightSamples.WithLabelValues(name).Add(float64(st.ZeroWeight))
		p.logger.Warn("samples without weight",
			"target", st.TargetID,
			"band", name,
			"samples", st.ZeroWeight)
	}
}

// rowWindow applies Input.Start and Input.Count.
func rowWindow(in Input) (*spectra.Spectra, error) {
	s := in.Spectra
	if in.Start == 0 && in.Count == 0 {
		return s, nil
	}
	count := in.Count
	if count == 0 {
		count = s.NumRows() - in.Start
	}
	out, err := s.Slice(in.Start, count)
	if errors.Is(err, spectra.ErrEmptySelection) {
		return nil, &SkipError{Err: err}
	}
	if err != nil {
		return nil, fmt.Errorf("row window: %w", err)
	}
	return out, nil
}

// vacuumGrids returns s with every band grid converted from air to vacuum.
// Per-row arrays are shared.
func vacuumGrids(s *spectra.Spectra) *spectra.Spectra {
	out := &spectra.Spectra{
		TargetIDs: s.TargetIDs,
		Bands:     make(map[band.Band]*spectra.BandData, len(s.Bands)),
	}
	for b, d := range s.Bands {
		nd := *d
		nd.Wave = wavelength.AirToVacSlice(d.Wave)
		out.Bands[b] = &nd
	}
	return out
}

// alignTemplates returns one template per row, matched by target id.
func alignTemplates(ids []int64, templates []model.Template) ([]model.Template, error) {
	byID := make(map[int64]model.Template, len(templates))
	for _, t := range templates {
		byID[t.TargetID] = t
	}
	out := make([]model.Template, len(ids))
	for i, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: target %d has no template", spectra.ErrTargetCountMismatch, id)
		}
		out[i] = t
	}
	return out, nil
}

func thumbnails(m *merge.Merged, factor int) ([]specio.Thumbnail, error) {
	out := make([]specio.Thumbnail, m.NumRows())
	for i, id := range m.TargetIDs {
		x, y, err := smooth.Thumbnail(m.Wave, m.Flux[i], factor)
		if err != nil {
			return nil, fmt.Errorf("target %d: %w", id, err)
		}
		out[i] = specio.Thumbnail{TargetID: id, Wave: x, Flux: y}
	}
	return out, nil
}
