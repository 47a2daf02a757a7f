package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-spectra/internal/specio"
	"github.com/cwbudde/algo-spectra/internal/testutil"
	"github.com/cwbudde/algo-spectra/spectra"
	"github.com/cwbudde/algo-spectra/spectra/band"
)

func runApp(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err = app.Run(append([]string{"speccoadd"}, args...))
	return out.String(), errOut.String(), err
}

func writeInput(t *testing.T, dir string, ids []int64) string {
	t.Helper()
	path := filepath.Join(dir, "frames.json.zst")
	s := testutil.SyntheticSpectra(ids, 40, 3)
	require.NoError(t, specio.WriteFile(path, specio.FromSpectra(s, nil)))
	return path
}

func TestBandsCommand(t *testing.T) {
	out, _, err := runApp(t, "bands")
	require.NoError(t, err)
	for _, want := range []string{"b", "r", "z", "3600", "9824"} {
		assert.True(t, strings.Contains(out, want), "missing %q in\n%s", want, out)
	}
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, []int64{10, 10, 11})
	out := filepath.Join(dir, "coadd.json")
	metrics := filepath.Join(dir, "speccoadd.prom")

	_, logs, err := runApp(t, "--log-format", "json",
		"run", "-o", out, "--workers", "2", "--thumb-factor", "2", "--metrics-file", metrics, in)
	require.NoError(t, err)
	assert.True(t, strings.Contains(logs, `"msg":"product written"`), logs)

	var prod specio.Product
	require.NoError(t, specio.ReadFile(out, &prod))
	assert.Equal(t, []int64{10, 11}, prod.TargetIDs)
	require.Len(t, prod.Flux, 2)
	require.Len(t, prod.Sigma, 2)
	require.Len(t, prod.Thumbnails, 2)
	testutil.RequireStrictlyIncreasing(t, prod.Wave)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "speccoadd_targets_coadded_total 2"))
}

func TestRunCommandSkipsUnknownTarget(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, []int64{1, 2})
	out := filepath.Join(dir, "coadd.json")

	metrics := filepath.Join(dir, "speccoadd.prom")

	_, logs, err := runApp(t, "run", "-o", out, "--metrics-file", metrics, "--targets", "77", in)
	require.NoError(t, err)
	assert.True(t, strings.Contains(logs, "skipping input"), logs)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "speccoadd_inputs_skipped_total 1"), string(data))
}

func TestRunCommandRejectsBadBands(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, []int64{1})
	_, _, err := runApp(t, "run", "--bands", "b,x", in)
	require.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, []int64{3, 4})

	out, _, err := runApp(t, "info", in)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	// header, rule, two rows times three bands
	assert.Len(t, lines, 8)
	assert.True(t, strings.Contains(out, "40/40"), out)
}

func TestInfoCommandNeedsInput(t *testing.T) {
	_, _, err := runApp(t, "info")
	require.Error(t, err)
}

func TestRunCommandRowWindow(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, []int64{10, 10, 11, 12})
	out := filepath.Join(dir, "coadd.json")

	_, _, err := runApp(t, "run", "-o", out, "--start", "1", "--nspec", "2", in)
	require.NoError(t, err)

	var prod specio.Product
	require.NoError(t, specio.ReadFile(out, &prod))
	assert.Equal(t, []int64{10, 11}, prod.TargetIDs)
}

func TestInfoCommandRange(t *testing.T) {
	n := 100
	s := &spectra.Spectra{
		TargetIDs: []int64{5},
		Bands: map[band.Band]*spectra.BandData{
			band.Blue: {
				Wave: testutil.LinearGrid(3600, 1, n),
				Flux: [][]float64{testutil.LinearGrid(0, 1, n)},
				Ivar: [][]float64{testutil.Constant(1, n)},
			},
		},
	}
	path := filepath.Join(t.TempDir(), "ramp.json")
	require.NoError(t, specio.WriteFile(path, specio.FromSpectra(s, nil)))

	out, _, err := runApp(t, "info", path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[1, 99]"), out)

	out, _, err = runApp(t, "info", "--pmin", "0", "--pmax", "0.5", path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "[0, 50]"), out)
}
