package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-spectra/spectra/band"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	bands, err := cfg.BandList()
	require.NoError(t, err)
	assert.Equal(t, band.All(), bands)
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "speccoadd.yaml")
	content := `
workers: 3
bands: [z, b]
noise_sentinel: 5
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("SPECCOADD_THUMB_FACTOR", "15")
	t.Setenv("SPECCOADD_LOG__FORMAT", "json")
	t.Setenv("SPECCOADD_WORKERS", "6")

	cfg, err := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"workers": 2}),
	).Load()
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15, cfg.ThumbFactor)
	assert.Equal(t, 5.0, cfg.NoiseSentinel)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.True(t, cfg.Coadd, "unset fields keep their defaults")

	bands, err := cfg.BandList()
	require.NoError(t, err)
	assert.Equal(t, []band.Band{band.Blue, band.InfraredZ}, bands)
}

func TestLoadCommaSeparatedBandsFromEnv(t *testing.T) {
	t.Setenv("SPECCOADD_BANDS", "b,r")
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	bands, err := cfg.BandList()
	require.NoError(t, err)
	assert.Equal(t, []band.Band{band.Blue, band.Red}, bands)
}

func TestLoadRejectsInfiniteSentinel(t *testing.T) {
	t.Setenv("SPECCOADD_NOISE_SENTINEL", "+Inf")
	_, err := NewLoader().Load()
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml"))).Load()
	require.Error(t, err)
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"thumb", func(c *Config) { c.ThumbFactor = -2 }},
		{"sentinel", func(c *Config) { c.NoiseSentinel = -1 }},
		{"sentinel inf", func(c *Config) { c.NoiseSentinel = math.Inf(1) }},
		{"sentinel nan", func(c *Config) { c.NoiseSentinel = math.NaN() }},
		{"bands empty", func(c *Config) { c.Bands = nil }},
		{"bands unknown", func(c *Config) { c.Bands = []string{"b", "q"} }},
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range tests {
		cfg := Default()
		tc.mutate(&cfg)
		require.ErrorIs(t, cfg.Validate(), ErrInvalid, tc.name)
	}
}
