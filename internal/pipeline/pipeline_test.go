package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-spectra/internal/config"
	spectest "github.com/cwbudde/algo-spectra/internal/testutil"
	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
	"github.com/cwbudde/algo-spectra/spectra/model"
	"github.com/cwbudde/algo-spectra/spectra/wavelength"
)

func newPipeline(t *testing.T, mutate func(*config.Config), opts ...Option) *Pipeline {
	t.Helper()
	cfg := config.Default()
	cfg.Workers = 2
	if mutate != nil {
		mutate(&cfg)
	}
	p, err := New(cfg, opts...)
	require.NoError(t, err)
	return p
}

func TestRunCoaddsAndMerges(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newPipeline(t, nil, WithLogger(logger))

	s := spectest.SyntheticSpectra([]int64{1, 1, 2}, 40, 3)
	prod, err := p.Run(context.Background(), Input{Spectra: s})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, prod.Merged.TargetIDs)
	require.Len(t, prod.Merged.Flux, 2)
	spectest.RequireStrictlyIncreasing(t, prod.Merged.Wave)

	// Two unit-ivar exposures for target 1, one for target 2.
	for _, v := range prod.Merged.Ivar[0] {
		require.Equal(t, 2.0, v)
	}
	for _, v := range prod.Merged.Ivar[1] {
		require.Equal(t, 1.0, v)
	}
	require.Len(t, prod.Sigma, 2)
	assert.InDelta(t, 1/1.4142135623730951, prod.Sigma[0][0], 1e-12)
	assert.NotNil(t, prod.Merged.Mask)
	assert.Nil(t, prod.Model)
	assert.Nil(t, prod.Thumbnails)

	m := p.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TargetsCoadded))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ExposuresCombined.WithLabelValues("b")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PlanCacheMisses))
	assert.True(t, strings.Contains(logs.String(), "bands merged"), logs.String())
	assert.True(t, strings.Contains(logs.String(), "median_snr"), logs.String())
}

func TestRunReusesPlan(t *testing.T) {
	p := newPipeline(t, nil)
	s := spectest.SyntheticSpectra([]int64{5, 6}, 30, 3)

	_, err := p.Run(context.Background(), Input{Spectra: s})
	require.NoError(t, err)
	_, err = p.Run(context.Background(), Input{Spectra: s})
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().PlanCacheHits))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().PlanCacheMisses))
}

func TestRunWithoutCoaddKeepsRows(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) { c.Coadd = false })
	s := spectest.SyntheticSpectra([]int64{1, 1, 2}, 30, 3)

	prod, err := p.Run(context.Background(), Input{Spectra: s})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 1, 2}, prod.Merged.TargetIDs)
	assert.Equal(t, 0.0, testutil.ToFloat64(p.Metrics().TargetsCoadded))

	prod, err = p.Run(context.Background(), Input{Spectra: s, Targets: []int64{2}})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, prod.Merged.TargetIDs)
}

func TestRunUnknownTargetIsSkip(t *testing.T) {
	for _, coadd := range []bool{true, false} {
		p := newPipeline(t, func(c *config.Config) { c.Coadd = coadd })
		s := spectest.SyntheticSpectra([]int64{1, 2}, 30, 3)

		_, err := p.Run(context.Background(), Input{Spectra: s, Targets: []int64{99}})
		var skip *SkipError
		require.True(t, errors.As(err, &skip), "coadd=%v: %v", coadd, err)
		assert.ErrorIs(t, err, spectra.ErrEmptySelection)
		assert.Equal(t, []int64{99}, skip.Targets)
	}
}

func TestRunModelAndThumbnails(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) { c.ThumbFactor = 3 })
	s := spectest.SyntheticSpectra([]int64{4, 4, 8}, 40, 3)

	rest := spectest.LinearGrid(2000, 1, 6001)
	templates := []model.Template{
		{TargetID: 8, Wave: rest, Flux: spectest.Constant(1, len(rest))},
		{TargetID: 4, Wave: rest, Flux: spectest.Constant(2, len(rest))},
	}
	prod, err := p.Run(context.Background(), Input{Spectra: s, Templates: templates})
	require.NoError(t, err)

	require.NotNil(t, prod.Model)
	assert.Equal(t, prod.Merged.Wave, prod.Model.Wave)
	require.Len(t, prod.Model.Flux, 2)
	spectest.RequireSliceNearlyEqual(t, prod.Model.Flux[0], spectest.Constant(2, len(prod.Model.Wave)), 1e-9)
	spectest.RequireSliceNearlyEqual(t, prod.Model.Flux[1], spectest.Constant(1, len(prod.Model.Wave)), 1e-9)

	require.Len(t, prod.Thumbnails, 2)
	for _, th := range prod.Thumbnails {
		require.NotEmpty(t, th.Wave)
		require.Len(t, th.Flux, len(th.Wave))
		spectest.RequireStrictlyIncreasing(t, th.Wave)
	}

	doc := prod.Document()
	assert.Equal(t, prod.Model.Flux, doc.Model)
	assert.Equal(t, prod.Sigma, doc.Sigma)
}

func TestRunMissingTemplate(t *testing.T) {
	p := newPipeline(t, nil)
	s := spectest.SyntheticSpectra([]int64{1, 2}, 30, 3)
	templates := []model.Template{{TargetID: 1, Wave: []float64{1, 2}, Flux: []float64{1, 1}}}

	_, err := p.Run(context.Background(), Input{Spectra: s, Templates: templates})
	require.ErrorIs(t, err, spectra.ErrTargetCountMismatch)
}

func TestRunMissingBand(t *testing.T) {
	p := newPipeline(t, nil)
	s := spectest.SyntheticSpectra([]int64{1}, 30, 3)
	delete(s.Bands, band.Red)

	_, err := p.Run(context.Background(), Input{Spectra: s})
	require.ErrorIs(t, err, spectra.ErrMissingBand)
}

func TestRunSubsetOfBands(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) { c.Bands = []string{"b", "r"} })
	s := spectest.SyntheticSpectra([]int64{1}, 30, 3)
	delete(s.Bands, band.InfraredZ)

	prod, err := p.Run(context.Background(), Input{Spectra: s})
	require.NoError(t, err)
	spectest.RequireStrictlyIncreasing(t, prod.Merged.Wave)
}

func TestRunCancelled(t *testing.T) {
	p := newPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := spectest.SyntheticSpectra([]int64{1, 1, 2, 3}, 30, 3)

	_, err := p.Run(ctx, Input{Spectra: s})
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Workers = -1
	_, err := New(cfg)
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestRunNilSpectra(t *testing.T) {
	p := newPipeline(t, nil)
	_, err := p.Run(context.Background(), Input{})
	require.ErrorIs(t, err, spectra.ErrEmptySelection)
}

func TestRunRowWindow(t *testing.T) {
	p := newPipeline(t, nil)
	s := spectest.SyntheticSpectra([]int64{1, 2, 3, 4}, 30, 3)

	prod, err := p.Run(context.Background(), Input{Spectra: s, Start: 1, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, prod.Merged.TargetIDs)

	prod, err = p.Run(context.Background(), Input{Spectra: s, Start: 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, prod.Merged.TargetIDs)

	_, err = p.Run(context.Background(), Input{Spectra: s, Start: 4})
	var skip *SkipError
	require.True(t, errors.As(err, &skip), "%v", err)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().InputsSkipped))

	_, err = p.Run(context.Background(), Input{Spectra: s, Start: 2, Count: 5})
	require.ErrorIs(t, err, spectra.ErrShapeMismatch)
}

func TestRunAirWavelengths(t *testing.T) {
	p := newPipeline(t, func(c *config.Config) { c.AirWavelengths = true })
	s := spectest.SyntheticSpectra([]int64{1}, 30, 3)

	prod, err := p.Run(context.Background(), Input{Spectra: s})
	require.NoError(t, err)
	assert.Equal(t, wavelength.AirToVac(3600), prod.Merged.Wave[0])
	assert.Greater(t, prod.Merged.Wave[0], 3600.0)
	assert.Equal(t, 3600.0, s.Bands[band.Blue].Wave[0], "input grid must not change")
	spectest.RequireStrictlyIncreasing(t, prod.Merged.Wave)
}
