package model

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-spectra/internal/testutil"
	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
	"github.com/cwbudde/algo-spectra/spectra/merge"
)

func flatTemplate(id int64, level, z float64) Template {
	wave := testutil.LinearGrid(2000, 1, 6000)
	return Template{TargetID: id, Wave: wave, Flux: testutil.Constant(level, len(wave)), Z: z}
}

func TestBuildAlignsByTargetID(t *testing.T) {
	s := testutil.SyntheticSpectra([]int64{10, 20, 30}, 64, 5)
	// Templates deliberately in a different order than the rows.
	templates := []Template{flatTemplate(30, 3, 0.1), flatTemplate(10, 1, 0), flatTemplate(20, 2, 0.5)}

	curve, err := Build(s, templates)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	p, err := merge.NewPlan(s.Grids())
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	testutil.RequireSliceEqual(t, curve.Wave, p.Wave())
	for row, level := range []float64{1, 2, 3} {
		if curve.TargetIDs[row] != s.TargetIDs[row] {
			t.Fatalf("row %d target = %d, want %d", row, curve.TargetIDs[row], s.TargetIDs[row])
		}
		// Identity resolution and a flat template give a flat curve.
		testutil.RequireSliceNearlyEqual(t, curve.Flux[row], testutil.Constant(level, len(curve.Wave)), 1e-9)
	}
	for _, b := range band.All() {
		if len(curve.Bands[b]) != 3 || len(curve.Bands[b][0]) != len(s.Bands[b].Wave) {
			t.Fatalf("band %v rows have wrong shape", b)
		}
	}
}

func TestBuildAppliesResolution(t *testing.T) {
	s := testutil.SyntheticSpectra([]int64{1}, 64, 3)
	for _, d := range s.Bands {
		for j := range d.Wave {
			d.Resolution[0][0][j] = 0
			d.Resolution[0][1][j] = 0.5
			d.Resolution[0][2][j] = 0
		}
	}
	curve, err := Build(s, []Template{flatTemplate(1, 4, 0)})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, curve.Flux[0], testutil.Constant(2, len(curve.Wave)), 1e-9)
}

func TestBuildWithoutResolution(t *testing.T) {
	s := testutil.SyntheticSpectra([]int64{1}, 64, 3)
	for _, d := range s.Bands {
		d.Resolution = nil
	}
	curve, err := Build(s, []Template{flatTemplate(1, 4, 0)})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, curve.Flux[0], testutil.Constant(4, len(curve.Wave)), 1e-9)
}

func TestBuildCustomResamplerAndPlan(t *testing.T) {
	s := testutil.SyntheticSpectra([]int64{1, 2}, 40, 3)
	p, err := merge.NewPlan(s.Grids(), merge.WithBands(band.Blue, band.Red))
	if err != nil {
		t.Fatalf("NewPlan() error = %v", err)
	}
	calls := 0
	r := ResamplerFunc(func(dst, _, _ []float64) ([]float64, error) {
		calls++
		return testutil.Constant(7, len(dst)), nil
	})
	curve, err := Build(s, []Template{flatTemplate(2, 0, 0), flatTemplate(1, 0, 0)}, WithPlan(p), WithResampler(r))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if calls != 4 {
		t.Fatalf("resampler calls = %d, want 4", calls)
	}
	if len(curve.Wave) != p.Len() {
		t.Fatalf("len(wave) = %d, want %d", len(curve.Wave), p.Len())
	}
	if _, ok := curve.Bands[band.InfraredZ]; ok {
		t.Fatal("bands outside the plan must not be evaluated")
	}
}

func TestBuildTargetMismatch(t *testing.T) {
	s := testutil.SyntheticSpectra([]int64{1, 2}, 40, 3)
	if _, err := Build(s, []Template{flatTemplate(1, 1, 0)}); !errors.Is(err, spectra.ErrTargetCountMismatch) {
		t.Fatalf("error = %v, want ErrTargetCountMismatch", err)
	}
	if _, err := Build(s, []Template{flatTemplate(1, 1, 0), flatTemplate(3, 1, 0)}); !errors.Is(err, spectra.ErrTargetCountMismatch) {
		t.Fatalf("error = %v, want ErrTargetCountMismatch", err)
	}
	bad := flatTemplate(2, 1, 0)
	bad.Flux = bad.Flux[:10]
	if _, err := Build(s, []Template{flatTemplate(1, 1, 0), bad}); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("error = %v, want ErrLengthMismatch", err)
	}
}

func TestBuildMissingBand(t *testing.T) {
	s := testutil.SyntheticSpectra([]int64{1}, 40, 3)
	delete(s.Bands, band.InfraredZ)
	if _, err := Build(s, []Template{flatTemplate(1, 1, 0)}); !errors.Is(err, spectra.ErrMissingBand) {
		t.Fatalf("error = %v, want ErrMissingBand", err)
	}
}
