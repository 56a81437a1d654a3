package silo

// metrics.go is a thin abstraction over Prometheus so a World can be used
// with or without metrics: pass WithMetrics(NewPrometheusMetrics(reg)) to a
// world that wants them, or nothing for a World whose hot path never pays
// for a metric update. Pattern and naming convention grounded on
// Voskan-arena-cache's pkg/metrics.go (metricsSink interface, noop vs
// prometheus implementations, factory picks between them).

import "github.com/prometheus/client_golang/prometheus"

// metricsSink is the internal abstraction World calls into. Not exported:
// callers only ever construct a concrete sink via NewPrometheusMetrics and
// pass it to WithMetrics.
type metricsSink interface {
	archetypeCreated()
	entitySpawned()
	entitiesSpawned(n int)
	entityKilled()
	drainDuration(seconds float64)
}

type noopMetrics struct{}

func (noopMetrics) archetypeCreated()         {}
func (noopMetrics) entitySpawned()            {}
func (noopMetrics) entitiesSpawned(int)       {}
func (noopMetrics) entityKilled()             {}
func (noopMetrics) drainDuration(float64)     {}

// prometheusMetrics is the Prometheus-backed metricsSink.
type prometheusMetrics struct {
	archetypes    prometheus.Counter
	entitiesSpawn prometheus.Counter
	entitiesKill  prometheus.Counter
	drainSeconds  prometheus.Histogram
}

// NewPrometheusMetrics builds a metricsSink registered against reg. Pass the
// result to WithMetrics when constructing a World.
func NewPrometheusMetrics(reg *prometheus.Registry) metricsSink {
	m := &prometheusMetrics{
		archetypes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "silo",
			Name:      "archetypes_created_total",
			Help:      "Number of archetypes created.",
		}),
		entitiesSpawn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "silo",
			Name:      "entities_spawned_total",
			Help:      "Number of entities spawned.",
		}),
		entitiesKill: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "silo",
			Name:      "entities_killed_total",
			Help:      "Number of entities killed.",
		}),
		drainSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "silo",
			Name:      "command_buffer_drain_seconds",
			Help:      "Time spent draining worker command buffers at a stage boundary.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.archetypes, m.entitiesSpawn, m.entitiesKill, m.drainSeconds)
	return m
}

func (m *prometheusMetrics) archetypeCreated()   { m.archetypes.Inc() }
func (m *prometheusMetrics) entitySpawned()      { m.entitiesSpawn.Inc() }
func (m *prometheusMetrics) entitiesSpawned(n int) {
	m.entitiesSpawn.Add(float64(n))
}
func (m *prometheusMetrics) entityKilled()            { m.entitiesKill.Inc() }
func (m *prometheusMetrics) drainDuration(seconds float64) { m.drainSeconds.Observe(seconds) }
