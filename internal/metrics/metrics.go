// Package metrics holds the prometheus collectors of the pathfinding engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChunksLoaded counts geometry chunks fetched and cached.
	ChunksLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ppather_chunks_loaded_total",
		Help: "Geometry chunks fetched from the provider and cached",
	})

	// ChunkLoadErrors counts failed chunk fetches (not cached, retryable).
	ChunkLoadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ppather_chunk_load_errors_total",
		Help: "Geometry chunk fetches that failed",
	})

	// SpotsCreated counts navigation spots accepted into a path graph.
	SpotsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ppather_spots_created_total",
		Help: "Navigation spots accepted into the path graph",
	})

	// Searches counts finished route searches by status.
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ppather_searches_total",
		Help: "Route searches by result status",
	}, []string{"status"})

	// SearchDuration tracks route search latency.
	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ppather_search_duration_seconds",
		Help:    "Route search duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"strategy"})

	// MapTransitions counts active map switches in the facade.
	MapTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ppather_map_transitions_total",
		Help: "Active map id switches (graph discarded and rebuilt)",
	})

	// OverlayClients is the number of connected overlay websocket clients.
	OverlayClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ppather_overlay_clients",
		Help: "Connected overlay websocket clients",
	})

	// OverlayDropped counts events dropped for slow overlay clients.
	OverlayDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ppather_overlay_dropped_total",
		Help: "Events dropped because an overlay client outbox was full",
	})
)
