// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts collection runs by outcome: success, partial
	// (some athletes failed), error (run aborted), rejected (a run was
	// already in flight).
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "challenge_collection_runs_total",
		Help: "Collection runs by outcome.",
	}, []string{"outcome"})

	// AthleteFailuresTotal counts per-athlete step failures by stage.
	AthleteFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "challenge_athlete_failures_total",
		Help: "Per-athlete collection failures by pipeline stage.",
	}, []string{"stage"})

	// TokenRefreshesTotal counts successful token refresh grants.
	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "challenge_token_refreshes_total",
		Help: "Successful OAuth token refreshes.",
	})

	// SnapshotDistanceKm reports the global total of the latest snapshot.
	SnapshotDistanceKm = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "challenge_snapshot_distance_km",
		Help: "Total distance in the latest stats snapshot.",
	})

	// SnapshotAthletes reports the athlete count of the latest snapshot.
	SnapshotAthletes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "challenge_snapshot_athletes",
		Help: "Athletes contributing to the latest stats snapshot.",
	})

	// RunDuration observes wall-clock duration of collection runs.
	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "challenge_collection_run_duration_seconds",
		Help:    "Wall-clock duration of collection runs.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)
