package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Loader merges configuration sources with koanf.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	overrides map[string]any
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file path. An empty path skips the file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithOverrides sets the highest-priority values, as a nested map keyed
// like the YAML file.
func WithOverrides(values map[string]any) Option {
	return func(l *Loader) {
		l.overrides = values
	}
}

// NewLoader creates a loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns Default() overlaid with file, environment and overrides, and
// validates the result.
func (l *Loader) Load() (Config, error) {
	if err := l.k.Load(mapProvider(defaultValues()), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}

	prefix := l.envPrefix
	transform := func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(s, "__", ".")
	}
	if err := l.k.Load(env.Provider(prefix, ".", transform), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	if len(l.overrides) > 0 {
		if err := l.k.Load(mapProvider(l.overrides), nil); err != nil {
			return Config{}, fmt.Errorf("load overrides: %w", err)
		}
	}

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Keys returns every loaded key.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

// defaultValues mirrors Default in the nested layout of the file. It is
// loaded as the lowest koanf layer: unmarshalling into pre-filled slices
// would overwrite the default bands element by element.
func defaultValues() map[string]any {
	d := Default()
	return map[string]any{
		"workers":         d.Workers,
		"bands":           d.Bands,
		"coadd":           d.Coadd,
		"air_wavelengths": d.AirWavelengths,
		"noise_sentinel":  d.NoiseSentinel,
		"thumb_factor":    d.ThumbFactor,
		"metrics_file":    d.MetricsFile,
		"log": map[string]any{
			"level":  d.Log.Level,
			"format": d.Log.Format,
		},
	}
}

var errReadBytesNotSupported = errors.New("config: map provider does not support ReadBytes")

// mapProvider feeds an in-memory map to koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytesNotSupported
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
