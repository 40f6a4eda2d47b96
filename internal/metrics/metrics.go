// Package metrics exposes engine and checkpoint telemetry as Prometheus
// collectors on a private registry.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"phoenix/internal/evo"
	"phoenix/internal/model"
	"phoenix/internal/storage"
)

const DefaultNamespace = "phoenix"

// Outcome labels for checkpoint operations.
const (
	OutcomeOK            = "ok"
	OutcomeNotFound      = "not_found"
	OutcomeEmptySnapshot = "empty_snapshot"
	OutcomeError         = "error"
)

var _ evo.Observer = (*Collector)(nil)

// Collector implements evo.Observer.
type Collector struct {
	registry *prometheus.Registry

	generation     *prometheus.GaugeVec
	populationSize *prometheus.GaugeVec
	evolutions     *prometheus.CounterVec
	engineOps      *prometheus.CounterVec
	storeOps       *prometheus.CounterVec
	storeLatency   *prometheus.HistogramVec
}

func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
	}

	c.generation = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "generation",
			Help:      "Current generation counter of the engine.",
		},
		[]string{"layer"},
	)
	c.populationSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "population_size",
			Help:      "Number of organisms after the last evolve.",
		},
		[]string{"layer"},
	)
	c.evolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "evolutions_total",
			Help:      "Total number of evolve calls that replaced the population.",
		},
		[]string{"layer"},
	)
	c.engineOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "persistence_operations_total",
			Help:      "Checkpoint and recover calls made by the engine, by outcome.",
		},
		[]string{"layer", "op", "outcome"},
	)
	c.storeOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "operations_total",
			Help:      "Checkpoint store operations, by outcome.",
		},
		[]string{"op", "outcome"},
	)
	c.storeLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "checkpoint",
			Name:      "duration_seconds",
			Help:      "Duration of checkpoint store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"op"},
	)

	c.registry.MustRegister(
		c.generation,
		c.populationSize,
		c.evolutions,
		c.engineOps,
		c.storeOps,
		c.storeLatency,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the current metrics for the node_exporter textfile
// collector.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}

func (c *Collector) ObserveGeneration(layer string, generation, populationSize int) {
	c.generation.WithLabelValues(layer).Set(float64(generation))
	c.populationSize.WithLabelValues(layer).Set(float64(populationSize))
	c.evolutions.WithLabelValues(layer).Inc()
}

func (c *Collector) ObserveCheckpoint(layer, _ string, err error) {
	c.engineOps.WithLabelValues(layer, "checkpoint", Classify(err)).Inc()
}

func (c *Collector) ObserveRecover(layer, _ string, err error) {
	c.engineOps.WithLabelValues(layer, "recover", Classify(err)).Inc()
}

func (c *Collector) observeStore(op string, started time.Time, err error) {
	c.storeOps.WithLabelValues(op, Classify(err)).Inc()
	c.storeLatency.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// Classify maps engine and storage errors to outcome labels.
func Classify(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, storage.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, evo.ErrEmptySnapshot):
		return OutcomeEmptySnapshot
	default:
		return OutcomeError
	}
}

// InstrumentedStore records count, outcome and latency of every operation
// of the wrapped store.
type InstrumentedStore struct {
	next      storage.CheckpointStore
	collector *Collector
}

func NewInstrumentedStore(next storage.CheckpointStore, collector *Collector) *InstrumentedStore {
	return &InstrumentedStore{next: next, collector: collector}
}

func (s *InstrumentedStore) Store(ctx context.Context, checkpointID string, population []model.Organism) error {
	started := time.Now()
	err := s.next.Store(ctx, checkpointID, population)
	s.collector.observeStore(storage.OpStore, started, err)
	return err
}

func (s *InstrumentedStore) Load(ctx context.Context, checkpointID string) ([]model.Organism, error) {
	started := time.Now()
	population, err := s.next.Load(ctx, checkpointID)
	s.collector.observeStore(storage.OpLoad, started, err)
	return population, err
}

// List forwards to the wrapped store when it supports listing.
func (s *InstrumentedStore) List(ctx context.Context) ([]string, error) {
	lister, ok := s.next.(storage.Lister)
	if !ok {
		return nil, errors.New("checkpoint store does not support listing")
	}
	return lister.List(ctx)
}

func (s *InstrumentedStore) Close() error {
	return storage.CloseIfSupported(s.next)
}
