package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
)

// Sleeper blocks for d or until ctx is done, in which case it returns ctx.Err().
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// PollerConfig controls the cadence of a LocationPoller.
type PollerConfig struct {
	Interval time.Duration
	// MaxPolls bounds the number of fetches per Run; 0 means until cancelled.
	MaxPolls int
}

// TrackingSession is the state of one polling run: the endpoint being polled
// and the last location seen on it.
type TrackingSession struct {
	ID          string
	OrderNumber string
	Endpoint    string
	StartedAt   time.Time

	previous *domain.LocationRecord
	polls    int
}

// NewTrackingSession creates a session for an already-resolved API endpoint.
func NewTrackingSession(orderNumber, endpoint string) *TrackingSession {
	return &TrackingSession{
		ID:          uuid.NewString(),
		OrderNumber: orderNumber,
		Endpoint:    endpoint,
		StartedAt:   time.Now().UTC(),
	}
}

// Previous returns a copy of the last location observed, or nil.
func (s *TrackingSession) Previous() *domain.LocationRecord {
	if s.previous == nil {
		return nil
	}
	cp := *s.previous
	return &cp
}

// LocationPoller repeatedly fetches a tracking endpoint and reports each
// cycle, including movement relative to the previous fix.
type LocationPoller struct {
	fetcher  ports.TrackingFetcher
	reporter ports.Reporter
	cfg      PollerConfig
	sleep    Sleeper
	now      func() time.Time
	log      zerolog.Logger
}

// PollerOption customises a LocationPoller.
type PollerOption func(*LocationPoller)

// WithSleeper replaces the wait between polls.
func WithSleeper(s Sleeper) PollerOption {
	return func(p *LocationPoller) { p.sleep = s }
}

// WithClock replaces the time source used for ObservedAt.
func WithClock(now func() time.Time) PollerOption {
	return func(p *LocationPoller) { p.now = now }
}

// NewLocationPoller returns domain.ErrInvalidInterval when cfg.Interval is not positive.
func NewLocationPoller(
	fetcher ports.TrackingFetcher,
	reporter ports.Reporter,
	cfg PollerConfig,
	log zerolog.Logger,
	opts ...PollerOption,
) (*LocationPoller, error) {
	if cfg.Interval <= 0 {
		return nil, domain.ErrInvalidInterval
	}
	p := &LocationPoller{
		fetcher:  fetcher,
		reporter: reporter,
		cfg:      cfg,
		sleep:    ContextSleep,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run polls the session's endpoint until ctx is cancelled, MaxPolls is
// reached or every task of the order is terminal. The cycle that sees the
// order finished is still reported. Fetch failures are reported and never end
// the loop. Cancellation is a clean stop and returns nil.
func (p *LocationPoller) Run(ctx context.Context, session *TrackingSession) error {
	log := p.log.With().
		Str("session_id", session.ID).
		Str("order", session.OrderNumber).
		Logger()
	log.Info().Str("endpoint", session.Endpoint).Dur("interval", p.cfg.Interval).Msg("tracking started")

	for {
		if ctx.Err() != nil {
			break
		}

		obs, ok := p.Poll(ctx, session)
		if ok {
			if err := p.reporter.Report(ctx, obs); err != nil {
				log.Warn().Err(err).Int("sequence", obs.Sequence).Msg("report failed")
			}
			if obs.Outcome != domain.OutcomeFailed && domain.AllTerminal(obs.Tasks) {
				log.Info().Int("sequence", obs.Sequence).Msg("order finished")
				break
			}
		}

		if p.cfg.MaxPolls > 0 && session.polls >= p.cfg.MaxPolls {
			break
		}
		if err := p.sleep(ctx, p.cfg.Interval); err != nil {
			break
		}
	}

	log.Info().Int("polls", session.polls).Msg("tracking stopped")
	return nil
}

// Poll performs a single fetch and updates the session. ok is false when the
// fetch was aborted by cancellation, in which case nothing should be reported.
func (p *LocationPoller) Poll(ctx context.Context, session *TrackingSession) (obs domain.Observation, ok bool) {
	started := time.Now()
	snap, err := p.fetcher.Fetch(ctx, session.Endpoint)
	elapsed := time.Since(started)
	if err != nil && ctx.Err() != nil {
		return domain.Observation{}, false
	}

	session.polls++
	obs = domain.Observation{
		SessionID:   session.ID,
		OrderNumber: session.OrderNumber,
		Endpoint:    session.Endpoint,
		Sequence:    session.polls,
		ObservedAt:  p.now(),
		FetchTime:   elapsed,
	}

	switch {
	case err != nil:
		obs.Outcome = domain.OutcomeFailed
		obs.Err = err
		obs.Error = err.Error()
	case snap == nil || snap.Location == nil:
		obs.Outcome = domain.OutcomeUnavailable
		if snap != nil {
			obs.Tasks = snap.Tasks
		}
	default:
		curr := *snap.Location
		obs.Outcome = domain.OutcomeLocated
		obs.Location = &curr
		obs.Tasks = snap.Tasks
		if session.previous != nil {
			m := domain.DetectMovement(*session.previous, curr)
			obs.Movement = &m
		}
		// replace, never merge
		next := curr
		session.previous = &next
	}

	return obs, true
}
