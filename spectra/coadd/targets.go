package coadd

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
)

// Stats describes the coaddition of one target in one band.
type Stats struct {
	TargetID   int64
	Band       band.Band
	Exposures  int
	ZeroWeight int
}

// Targets coadds every band of every selected target and returns one row
// per target. Targets with a single row are copied unchanged. The input is
// not modified.
//
// Targets are independent and are coadded concurrently; cancelling ctx
// stops scheduling further targets and returns ctx.Err().
func Targets(ctx context.Context, s *spectra.Spectra, opts ...Option) (*spectra.Spectra, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg = cfg.finalized()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	index := s.Index()
	ids := cfg.targets
	if ids == nil {
		ids = index.Targets()
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no targets", spectra.ErrEmptySelection)
	}

	rows := make([][]int, len(ids))
	for i, id := range ids {
		r, err := index.Rows(id)
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}

	out := &spectra.Spectra{
		TargetIDs: append([]int64(nil), ids...),
		Bands:     make(map[band.Band]*spectra.BandData, len(s.Bands)),
	}
	for b, d := range s.Bands {
		nd := &spectra.BandData{
			Wave: d.Wave,
			Flux: make([][]float64, len(ids)),
			Ivar: make([][]float64, len(ids)),
		}
		if d.Resolution != nil {
			nd.Resolution = make([][][]float64, len(ids))
		}
		if d.Mask != nil {
			nd.Mask = make([][]uint32, len(ids))
		}
		out.Bands[b] = nd
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for i := range ids {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return coaddTarget(s, out, i, ids[i], rows[i], cfg.observer)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// coaddTarget fills output row i. Each call writes a distinct row, so
// concurrent calls never share memory.
func coaddTarget(in, out *spectra.Spectra, i int, id int64, rows []int, observer func(Stats)) error {
	for b, d := range in.Bands {
		ex := Exposures{
			Flux: pick(d.Flux, rows),
			Ivar: pick(d.Ivar, rows),
		}
		if d.Resolution != nil {
			ex.Resolution = make([][][]float64, len(rows))
			for k, r := range rows {
				ex.Resolution[k] = d.Resolution[r]
			}
		}
		if d.Mask != nil {
			ex.Mask = make([][]uint32, len(rows))
			for k, r := range rows {
				ex.Mask[k] = d.Mask[r]
			}
		}

		res, err := Coadd(d.Wave, ex)
		if err != nil {
			return fmt.Errorf("target %d band %v: %w", id, b, err)
		}

		nd := out.Bands[b]
		nd.Flux[i] = res.Flux
		nd.Ivar[i] = res.Ivar
		if nd.Resolution != nil {
			nd.Resolution[i] = res.Resolution
		}
		if nd.Mask != nil {
			nd.Mask[i] = res.Mask
		}
		if observer != nil {
			observer(Stats{TargetID: id, Band: b, Exposures: len(rows), ZeroWeight: res.ZeroWeight})
		}
	}
	return nil
}

func pick(m [][]float64, rows []int) [][]float64 {
	out := make([][]float64, len(rows))
	for k, r := range rows {
		out[k] = m[r]
	}
	return out
}
