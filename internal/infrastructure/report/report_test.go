package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
	"github.com/yabalash/driver-tracker/internal/infrastructure/metrics"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func locatedObservation() domain.Observation {
	battery := 64
	return domain.Observation{
		OrderNumber: "1001",
		Sequence:    2,
		Outcome:     domain.OutcomeLocated,
		Location: &domain.LocationRecord{
			Coordinates:  domain.Coordinates{Lat: 25.2, Lng: 55.3},
			UpdatedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
			BatteryLevel: &battery,
			DeviceType:   "IOS",
			Active:       true,
		},
		Movement: &domain.Movement{Moved: true, DistanceKm: 0.42},
		Tasks: []domain.TaskRecord{
			{Kind: domain.TaskPickup, Status: domain.TaskCompleted, Address: strings.Repeat("a", 80)},
		},
	}
}

func TestLogReporter_Located(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))

	require.NoError(t, r.Report(context.Background(), locatedObservation()))

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 3)

	assert.Equal(t, "driver location", lines[0]["message"])
	assert.Equal(t, 25.2, lines[0]["lat"])
	assert.Equal(t, float64(64), lines[0]["battery"])
	assert.Equal(t, "https://www.google.com/maps?q=25.2,55.3", lines[0]["maps"])
	assert.Equal(t, "1001", lines[0]["order"])

	assert.Equal(t, "driver moved", lines[1]["message"])
	assert.Equal(t, 0.42, lines[1]["distance_km"])

	assert.Equal(t, "delivery task", lines[2]["message"])
	assert.Equal(t, "pickup", lines[2]["kind"])
	assert.Equal(t, strings.Repeat("a", 50)+"...", lines[2]["address"])
}

func TestLogReporter_UnavailableAndFailedAreDistinct(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))

	_ = r.Report(context.Background(), domain.Observation{Outcome: domain.OutcomeUnavailable})
	netErr := &domain.NetworkError{URL: "e", Cause: errors.New("timeout")}
	_ = r.Report(context.Background(), domain.Observation{Outcome: domain.OutcomeFailed, Err: netErr, Error: netErr.Error()})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "info", lines[0]["level"])
	assert.Contains(t, lines[0]["message"], "not assigned")
	assert.Equal(t, "warn", lines[1]["level"])
	assert.Equal(t, "network", lines[1]["kind"])
}

func TestMetricsReporter(t *testing.T) {
	r := NewMetricsReporter()
	beforeMoves := testutil.ToFloat64(metrics.MovementsTotal)
	beforeParse := testutil.ToFloat64(metrics.PollErrorsTotal.WithLabelValues("parse"))
	beforeLocated := testutil.ToFloat64(metrics.PollsTotal.WithLabelValues("located"))

	_ = r.Report(context.Background(), locatedObservation())
	_ = r.Report(context.Background(), domain.Observation{
		Outcome: domain.OutcomeFailed,
		Err:     &domain.ParseError{URL: "e", Cause: errors.New("eof")},
	})

	assert.Equal(t, beforeMoves+1, testutil.ToFloat64(metrics.MovementsTotal))
	assert.Equal(t, beforeParse+1, testutil.ToFloat64(metrics.PollErrorsTotal.WithLabelValues("parse")))
	assert.Equal(t, beforeLocated+1, testutil.ToFloat64(metrics.PollsTotal.WithLabelValues("located")))
}

func TestFanout_DeliversToAllAndJoinsErrors(t *testing.T) {
	var got []string
	ok := ports.ReporterFunc(func(_ context.Context, obs domain.Observation) error {
		got = append(got, "ok:"+obs.OrderNumber)
		return nil
	})
	boom := errors.New("redis down")
	failing := ports.ReporterFunc(func(_ context.Context, obs domain.Observation) error {
		got = append(got, "failing:"+obs.OrderNumber)
		return boom
	})

	f := NewFanout(failing, nil, ok)
	assert.Equal(t, 2, f.Len())

	err := f.Report(context.Background(), domain.Observation{OrderNumber: "7"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"failing:7", "ok:7"}, got)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, NewFanout().Report(context.Background(), domain.Observation{}))
}
