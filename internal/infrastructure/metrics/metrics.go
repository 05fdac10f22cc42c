// Package metrics defines and registers all custom Prometheus metrics for the
// driver tracker. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on import and
// served by the control API at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracker"

// ── Poll metrics ──────────────────────────────────────────────────────────────

// PollsTotal counts completed poll cycles.
// Label:
//   - outcome: "located", "unavailable" or "failed"
var PollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "polls_total",
		Help:      "Total number of tracking endpoint polls, by outcome.",
	},
	[]string{"outcome"},
)

// PollErrorsTotal counts failed polls.
// Label:
//   - kind: "network", "http_status", "parse" or "other"
var PollErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "poll_errors_total",
		Help:      "Total number of failed tracking endpoint polls, by error kind.",
	},
	[]string{"kind"},
)

// PollDuration measures how long a single fetch of a tracking endpoint takes.
// Label:
//   - outcome: as for PollsTotal
var PollDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "poll_duration_seconds",
		Help:      "Duration of a tracking endpoint fetch.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"outcome"},
)

// ── Movement metrics ──────────────────────────────────────────────────────────

// MovementsTotal counts polls in which the driver's position changed.
var MovementsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "driver_movements_total",
		Help:      "Total number of polls that observed a changed driver position.",
	},
)

// MovementDistance records the approximate distance moved between two fixes.
var MovementDistance = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "driver_movement_km",
		Help:      "Approximate planar distance moved between consecutive fixes, in km.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionsActive tracks the number of running tracking sessions.
var SessionsActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Current number of running tracking sessions.",
	},
)

// SessionsStartedTotal counts session start attempts.
// Label:
//   - result: "started", "exists", "not_found" or "error"
var SessionsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Total number of tracking session start attempts, by result.",
	},
	[]string{"result"},
)

// DiscoveryRunsTotal counts discovery job runs.
// Label:
//   - result: "ok" or "error"
var DiscoveryRunsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "discovery_runs_total",
		Help:      "Total number of tracked-order discovery runs, by result.",
	},
	[]string{"result"},
)
