package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
	"github.com/yabalash/driver-tracker/internal/infrastructure/metrics"
)

// DefaultDiscoverySchedule runs discovery once a minute.
const DefaultDiscoverySchedule = "0 * * * * *"

// SessionStarter is the part of the session manager the discovery job needs.
type SessionStarter interface {
	Has(orderNumber string) bool
	Settled(orderNumber string) bool
	StartOrder(order domain.Order) (*ports.SessionInfo, error)
}

// DiscoveryJob periodically lists the orders that carry a tracking URL and
// starts a session for every one that is neither tracked nor settled. Orders
// stopped by an operator or finished stay settled until started explicitly.
type DiscoveryJob struct {
	orders   ports.OrderDirectory
	sessions SessionStarter
	timeout  time.Duration
	cron     *cron.Cron
	logger   zerolog.Logger
}

// NewDiscoveryJob creates the job. Each run is bounded by timeout.
func NewDiscoveryJob(orders ports.OrderDirectory, sessions SessionStarter, timeout time.Duration, logger zerolog.Logger) *DiscoveryJob {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DiscoveryJob{
		orders:   orders,
		sessions: sessions,
		timeout:  timeout,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With().Str("component", "discovery_job").Logger(),
	}
}

// Start schedules the job with a six-field cron expression.
func (j *DiscoveryJob) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultDiscoverySchedule
	}
	_, err := j.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
		defer cancel()

		if _, err := j.RunOnce(ctx); err != nil {
			j.logger.Error().Err(err).Msg("order discovery failed")
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info().Str("schedule", schedule).Msg("order discovery job started")
	return nil
}

// Stop halts scheduling and waits for a running discovery to finish.
func (j *DiscoveryJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.Info().Msg("order discovery job stopped")
}

// RunOnce performs a single discovery pass and returns the order numbers it
// started tracking. Failing to start one order does not abort the pass.
func (j *DiscoveryJob) RunOnce(ctx context.Context) ([]string, error) {
	orders, err := j.orders.TrackedOrders(ctx)
	if err != nil {
		metrics.DiscoveryRunsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.DiscoveryRunsTotal.WithLabelValues("ok").Inc()

	var started []string
	for _, o := range orders {
		if j.sessions.Has(o.Number) || j.sessions.Settled(o.Number) {
			continue
		}
		info, err := j.sessions.StartOrder(o)
		switch {
		case err == nil:
			started = append(started, o.Number)
			j.logger.Info().
				Str("order", o.Number).
				Str("session_id", info.ID).
				Str("vendor", o.VendorName).
				Msg("discovered order, tracking started")
		case errors.Is(err, domain.ErrSessionExists):
		default:
			j.logger.Warn().Err(err).Str("order", o.Number).Msg("could not start tracking discovered order")
		}
	}
	return started, nil
}
