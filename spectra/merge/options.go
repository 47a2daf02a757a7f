package merge

import "github.com/cwbudde/algo-spectra/spectra/band"

type config struct {
	bands []band.Band
}

// Option configures plan construction.
type Option func(*config)

// WithBands sets the bands that must be present and are stitched. The
// default is every band in band.All().
func WithBands(bands ...band.Band) Option {
	return func(cfg *config) {
		cfg.bands = append([]band.Band(nil), bands...)
	}
}

func defaultConfig() config {
	return config{bands: band.All()}
}

func (c config) finalized() config {
	if len(c.bands) == 0 {
		c.bands = band.All()
	}
	bands := append([]band.Band(nil), c.bands...)
	band.Sort(bands)
	c.bands = bands
	return c
}

func buildConfig(opts []Option) config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg.finalized()
}
