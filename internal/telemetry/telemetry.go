// Package telemetry holds the Prometheus metrics of the coaddition
// pipeline.
//
// Metrics live on a private registry so that tests and concurrent
// pipelines never share state. The CLI writes them in the node-exporter
// textfile format after a run.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "speccoadd"

// Registry holds all pipeline metrics.
type Registry struct {
	registry *prometheus.Registry

	TargetsCoadded    prometheus.Counter
	InputsSkipped     prometheus.Counter
	ExposuresCombined *prometheus.CounterVec
	ZeroWeightSamples *prometheus.CounterVec
	PlanCacheHits     prometheus.Counter
	PlanCacheMisses   prometheus.Counter
	StageDuration     *prometheus.HistogramVec
	RowsProcessed     prometheus.Gauge
}

// NewRegistry creates the collectors and registers them, together with the
// Go runtime collector, on a fresh registry.
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		TargetsCoadded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "targets_coadded_total",
			Help:      "Targets combined by the exposure coadder.",
		}),
		InputsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inputs_skipped_total",
			Help:      "Batches whose row or target selection matched nothing.",
		}),
		ExposuresCombined: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exposures_combined_total",
			Help:      "Exposures folded into coadded spectra.",
		}, []string{"band"}),
		ZeroWeightSamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zero_weight_samples_total",
			Help:      "Samples where every exposure had zero inverse variance.",
		}, []string{"band"}),
		PlanCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_plan_cache_hits_total",
			Help:      "Merge plans served from the cache.",
		}),
		PlanCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_plan_cache_misses_total",
			Help:      "Merge plans built from scratch.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"stage"}),
		RowsProcessed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rows_processed",
			Help:      "Rows in the most recent merged product.",
		}),
	}

	r.registry.MustRegister(
		r.TargetsCoadded,
		r.InputsSkipped,
		r.ExposuresCombined,
		r.ZeroWeightSamples,
		r.PlanCacheHits,
		r.PlanCacheMisses,
		r.StageDuration,
		r.RowsProcessed,
		collectors.NewGoCollector(),
	)
	return r
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveStage records the time elapsed since start for stage.
func (r *Registry) ObserveStage(stage string, start time.Time) {
	r.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// PlanLookup counts a merge plan cache access.
func (r *Registry) PlanLookup(hit bool) {
	if hit {
		r.PlanCacheHits.Inc()
		return
	}
	r.PlanCacheMisses.Inc()
}

// WriteTextfile writes every metric to path in the Prometheus text format.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("telemetry: write %s: %w", path, err)
	}
	return nil
}
