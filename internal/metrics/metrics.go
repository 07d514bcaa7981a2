// Package metrics defines the Prometheus collectors exported by the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "manito"

// Claim outcomes.
const (
	ClaimClaimed  = "claimed"
	ClaimVerified = "verified"
	ClaimMismatch = "mismatch"
	ClaimLost     = "lost"
	ClaimNotFound = "not_found"
)

// Metrics holds every collector. Create one per registry.
type Metrics struct {
	RoomsCreated prometheus.Counter
	Claims       *prometheus.CounterVec
	Reveals      *prometheus.CounterVec
	Rematches    *prometheus.CounterVec
	Watchers     prometheus.Gauge
	RPCDuration  *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RoomsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms created, including rooms forked by a rematch.",
		}),
		Claims: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Identity claim and verification attempts by outcome.",
		}, []string{"outcome"}),
		Reveals: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reveals_total",
			Help:      "Reveal requests; changed is false for rooms that were already revealed.",
		}, []string{"changed"}),
		Rematches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rematches_total",
			Help:      "Completed rematches by mode.",
		}, []string{"mode"}),
		Watchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "watchers",
			Help:      "Open room and participant snapshot subscriptions.",
		}),
		RPCDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Unary RPC latency by procedure and status code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
	}
}

// TrackWatchers adapts the Watchers gauge to a +1/-1 callback.
func (m *Metrics) TrackWatchers(delta int) {
	m.Watchers.Add(float64(delta))
}
