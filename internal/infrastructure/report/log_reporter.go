package report

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

const maxAddressLen = 50

// LogReporter writes each observation as structured log events. With the
// console writer enabled this is the human-readable tracking output.
type LogReporter struct {
	log zerolog.Logger
}

func NewLogReporter(log zerolog.Logger) *LogReporter {
	return &LogReporter{log: log}
}

// Report never fails.
func (r *LogReporter) Report(_ context.Context, obs domain.Observation) error {
	log := r.log.With().
		Str("order", obs.OrderNumber).
		Int("sequence", obs.Sequence).
		Logger()

	switch obs.Outcome {
	case domain.OutcomeFailed:
		log.Warn().
			Str("kind", domain.ErrorKind(obs.Err)).
			Str("error", obs.Error).
			Msg("poll failed, retrying")
	case domain.OutcomeUnavailable:
		log.Info().Msg("no driver location available yet (driver not assigned)")
	case domain.OutcomeLocated:
		r.location(log, obs)
	}

	for i, t := range obs.Tasks {
		log.Info().
			Int("task", i+1).
			Str("kind", string(t.Kind)).
			Str("status", string(t.Status)).
			Str("address", truncate(t.Address, maxAddressLen)).
			Msg("delivery task")
	}
	return nil
}

func (r *LogReporter) location(log zerolog.Logger, obs domain.Observation) {
	loc := obs.Location
	ev := log.Info().
		Float64("lat", loc.Coordinates.Lat).
		Float64("lng", loc.Coordinates.Lng).
		Str("device", loc.DeviceType).
		Bool("active", loc.Active).
		Str("maps", loc.MapsURL())
	if !loc.UpdatedAt.IsZero() {
		ev = ev.Time("updated_at", loc.UpdatedAt)
	}
	if loc.BatteryLevel != nil {
		ev = ev.Int("battery", *loc.BatteryLevel)
	}
	ev.Msg("driver location")

	if obs.Movement != nil && obs.Movement.Moved {
		log.Info().
			Float64("distance_km", obs.Movement.DistanceKm).
			Msg("driver moved")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
