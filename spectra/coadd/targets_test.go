package coadd

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cwbudde/algo-spectra/internal/testutil"
	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
)

func TestTargetsCombinesRowsPerTarget(t *testing.T) {
	ids := []int64{7, 8, 7, 9, 7}
	in := testutil.SyntheticSpectra(ids, 40, 5)
	in.Bands[band.Red].Mask[2][10] = 4

	var mu sync.Mutex
	seen := map[int64]int{}
	out, err := Targets(context.Background(), in, WithWorkers(2), WithObserver(func(s Stats) {
		mu.Lock()
		defer mu.Unlock()
		seen[s.TargetID] = s.Exposures
	}))
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if err := out.Validate(); err != nil {
		t.Fatalf("output Validate() error = %v", err)
	}
	if got := out.TargetIDs; len(got) != 3 || got[0] != 7 || got[1] != 8 || got[2] != 9 {
		t.Fatalf("TargetIDs = %v, want [7 8 9]", got)
	}
	if seen[7] != 3 || seen[8] != 1 || seen[9] != 1 {
		t.Fatalf("observer exposures = %v", seen)
	}

	for b, d := range in.Bands {
		od := out.Bands[b]
		// Unit ivar: target 7 is the plain mean of rows 0, 2 and 4.
		want := make([]float64, len(d.Wave))
		for j := range want {
			want[j] = (d.Flux[0][j] + d.Flux[2][j] + d.Flux[4][j]) / 3
		}
		testutil.RequireSliceNearlyEqual(t, od.Flux[0], want, 1e-12)
		testutil.RequireSliceEqual(t, od.Ivar[0], testutil.Constant(3, len(d.Wave)))
		// Single-row targets pass through.
		testutil.RequireSliceEqual(t, od.Flux[1], d.Flux[1])
		testutil.RequireSliceEqual(t, od.Flux[2], d.Flux[3])
		testutil.RequireSliceEqual(t, od.Wave, d.Wave)
	}
	if out.Bands[band.Red].Mask[0][10] != 4 {
		t.Fatal("mask flag of one exposure must propagate")
	}
}

func TestTargetsSubsetOrder(t *testing.T) {
	in := testutil.SyntheticSpectra([]int64{1, 2, 3, 2}, 30, 3)
	out, err := Targets(context.Background(), in, WithTargets(3, 2))
	if err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	if out.NumRows() != 2 || out.TargetIDs[0] != 3 || out.TargetIDs[1] != 2 {
		t.Fatalf("TargetIDs = %v, want [3 2]", out.TargetIDs)
	}
	testutil.RequireSliceEqual(t, out.Bands[band.Blue].Flux[0], in.Bands[band.Blue].Flux[2])
}

func TestTargetsUnknownTarget(t *testing.T) {
	in := testutil.SyntheticSpectra([]int64{1, 2}, 30, 3)
	_, err := Targets(context.Background(), in, WithTargets(1, 42))
	if !errors.Is(err, spectra.ErrEmptySelection) {
		t.Fatalf("error = %v, want ErrEmptySelection", err)
	}
}

func TestTargetsRejectsBadShapes(t *testing.T) {
	in := testutil.SyntheticSpectra([]int64{1, 1}, 30, 3)
	in.Bands[band.InfraredZ].Ivar[1] = in.Bands[band.InfraredZ].Ivar[1][:10]
	if _, err := Targets(context.Background(), in); !errors.Is(err, spectra.ErrShapeMismatch) {
		t.Fatalf("error = %v, want ErrShapeMismatch", err)
	}
}

func TestTargetsCancelled(t *testing.T) {
	in := testutil.SyntheticSpectra([]int64{1, 1, 2, 2}, 30, 3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Targets(ctx, in); !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestTargetsDoesNotMutateInput(t *testing.T) {
	in := testutil.SyntheticSpectra([]int64{5, 5}, 30, 3)
	before := append([]float64(nil), in.Bands[band.Blue].Flux[0]...)
	if _, err := Targets(context.Background(), in); err != nil {
		t.Fatalf("Targets() error = %v", err)
	}
	testutil.RequireSliceEqual(t, in.Bands[band.Blue].Flux[0], before)
}
