package coadd

import "runtime"

type config struct {
	targets  []int64
	workers  int
	observer func(Stats)
}

// Option configures Targets.
type Option func(*config)

// WithTargets restricts coaddition to the given target ids, in that order.
// Without it every target is coadded in first-seen order.
func WithTargets(ids ...int64) Option {
	return func(cfg *config) {
		cfg.targets = append([]int64(nil), ids...)
	}
}

// WithWorkers bounds the number of targets coadded concurrently.
// Values below 1 select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(cfg *config) {
		cfg.workers = n
	}
}

// WithObserver registers a callback invoked once per coadded target and
// band. It may be called from several goroutines at once.
func WithObserver(fn func(Stats)) Option {
	return func(cfg *config) {
		cfg.observer = fn
	}
}

func defaultConfig() config {
	return config{workers: runtime.GOMAXPROCS(0)}
}

func (c config) finalized() config {
	if c.workers < 1 {
		c.workers = runtime.GOMAXPROCS(0)
	}
	return c
}
