// Package config loads pipeline configuration for the speccoadd tool.
//
// Sources are applied in increasing priority: built-in defaults, a YAML
// file, SPECCOADD_* environment variables, then explicit overrides (CLI
// flags). Environment keys are lower-cased after the prefix and a double
// underscore separates nesting levels:
//
//	SPECCOADD_WORKERS=8          -> workers
//	SPECCOADD_NOISE_SENTINEL=0   -> noise_sentinel
//	SPECCOADD_LOG__LEVEL=debug   -> log.level
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/cwbudde/algo-spectra/spectra/band"
)

// DefaultEnvPrefix is the environment variable prefix.
const DefaultEnvPrefix = "SPECCOADD_"

// ErrInvalid indicates a configuration value outside its allowed range.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the pipeline configuration.
type Config struct {
	Workers int      `koanf:"workers"`
	Bands   []string `koanf:"bands"`
	Coadd   bool     `koanf:"coadd"`
	// AirWavelengths marks input grids as air wavelengths; they are
	// converted to vacuum before merging.
	AirWavelengths bool      `koanf:"air_wavelengths"`
	NoiseSentinel  float64   `koanf:"noise_sentinel"`
	ThumbFactor    int       `koanf:"thumb_factor"`
	MetricsFile    string    `koanf:"metrics_file"`
	Log            LogConfig `koanf:"log"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:       0,
		Bands:         []string{"b", "r", "z"},
		Coadd:         true,
		NoiseSentinel: 0,
		ThumbFactor:   0,
		Log:           LogConfig{Level: "info", Format: "text"},
	}
}

// BandList parses Bands. Entries may themselves be comma-separated, which
// is how list values arrive from environment variables.
func (c Config) BandList() ([]band.Band, error) {
	var names []string
	for _, entry := range c.Bands {
		for _, n := range strings.Split(entry, ",") {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no bands", ErrInvalid)
	}
	bands, err := band.ParseList(names)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	band.Sort(bands)
	return bands, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0: %d", ErrInvalid, c.Workers)
	}
	if c.ThumbFactor < 0 {
		return fmt.Errorf("%w: thumb_factor must be >= 0: %d", ErrInvalid, c.ThumbFactor)
	}
	if c.NoiseSentinel < 0 || math.IsNaN(c.NoiseSentinel) || math.IsInf(c.NoiseSentinel, 0) {
		return fmt.Errorf("%w: noise_sentinel must be finite and >= 0: %v", ErrInvalid, c.NoiseSentinel)
	}
	if _, err := c.BandList(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}
