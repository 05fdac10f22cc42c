package report

import (
	"context"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/infrastructure/metrics"
)

// MetricsReporter feeds poll observations into the Prometheus metrics.
type MetricsReporter struct{}

func NewMetricsReporter() *MetricsReporter { return &MetricsReporter{} }

func (MetricsReporter) Report(_ context.Context, obs domain.Observation) error {
	outcome := string(obs.Outcome)
	metrics.PollsTotal.WithLabelValues(outcome).Inc()
	metrics.PollDuration.WithLabelValues(outcome).Observe(obs.FetchTime.Seconds())

	if obs.Outcome == domain.OutcomeFailed {
		metrics.PollErrorsTotal.WithLabelValues(domain.ErrorKind(obs.Err)).Inc()
	}
	if obs.Movement != nil && obs.Movement.Moved {
		metrics.MovementsTotal.Inc()
		metrics.MovementDistance.Observe(obs.Movement.DistanceKm)
	}
	return nil
}
