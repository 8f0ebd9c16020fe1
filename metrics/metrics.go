// Package metrics exposes the module's Prometheus instrumentation: queue
// depth, cache occupancy, trigger counts, and association latency.
// Components take a *Metrics (left nil in tests, which skips every update)
// rather than
// reaching for prometheus' default registry directly, so multiple module
// instances in one process can each register their own collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the data plane updates.
type Metrics struct {
	QueueDepth        *prometheus.GaugeVec
	CacheOccupancy    *prometheus.GaugeVec
	TriggersTotal     *prometheus.CounterVec
	PicksTotal        *prometheus.CounterVec
	AssociationLatency prometheus.Histogram
	AssociationsTotal *prometheus.CounterVec
}

// New constructs a Metrics bundle and registers every collector with
// registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "urts",
			Name:      "queue_depth",
			Help:      "Current number of items held in a bounded pipeline queue.",
		}, []string{"queue"}),
		CacheOccupancy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "urts",
			Name:      "packet_cache_occupancy",
			Help:      "Current number of packets held in a channel's circular buffer.",
		}, []string{"channel"}),
		TriggersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urts",
			Name:      "threshold_triggers_total",
			Help:      "Total number of trigger windows closed by the threshold detector.",
		}, []string{"channel"}),
		PicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urts",
			Name:      "picks_total",
			Help:      "Total number of picks published, by outcome.",
		}, []string{"channel", "outcome"}),
		AssociationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "urts",
			Name:      "association_latency_seconds",
			Help:      "Time spent servicing a single association request.",
			Buckets:   prometheus.DefBuckets,
		}),
		AssociationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "urts",
			Name:      "associations_total",
			Help:      "Total number of association requests, by return code.",
		}, []string{"return_code"}),
	}

	registry.MustRegister(
		m.QueueDepth,
		m.CacheOccupancy,
		m.TriggersTotal,
		m.PicksTotal,
		m.AssociationLatency,
		m.AssociationsTotal,
	)
	return m
}

// ObserveAssociationLatency records how long an association request took.
func (m *Metrics) ObserveAssociationLatency(d time.Duration) {
	m.AssociationLatency.Observe(d.Seconds())
}
