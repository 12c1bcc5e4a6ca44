// Package metrics exposes the prometheus instruments shared by the recall
// engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SweepTransitions counts tier transitions applied by lifecycle sweeps,
	// labeled by tenant and transition kind (promoted, archived, expired,
	// demoted).
	SweepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "sweep_transitions_total",
			Help:      "Tier transitions applied by lifecycle sweeps",
		},
		[]string{"tenant", "transition"},
	)

	// SweepScanned counts records evaluated per sweep.
	SweepScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "sweep_records_scanned_total",
			Help:      "Records evaluated by lifecycle sweeps",
		},
		[]string{"tenant"},
	)

	// RetrievalRequests counts retrievals by chosen path (temporal, semantic).
	RetrievalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "retrieval_requests_total",
			Help:      "Retrieval requests by query-planning path",
		},
		[]string{"path"},
	)

	// StoreWrites counts memory writes by outcome (stored, duplicate, error).
	StoreWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "store_writes_total",
			Help:      "Memory record writes by outcome",
		},
		[]string{"outcome"},
	)

	// EmbeddingRetries counts facet embedding attempts beyond the first.
	EmbeddingRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recall",
			Name:      "embedding_retries_total",
			Help:      "Facet embedding retry attempts",
		},
	)
)
