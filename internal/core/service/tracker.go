package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

// Tracker ties resolution and polling together for a single order.
type Tracker struct {
	resolver *TrackingResolver
	poller   *LocationPoller
	log      zerolog.Logger
}

func NewTracker(resolver *TrackingResolver, poller *LocationPoller, log zerolog.Logger) *Tracker {
	return &Tracker{resolver: resolver, poller: poller, log: log}
}

// Open resolves orderNumber into a new session without starting it.
func (t *Tracker) Open(ctx context.Context, orderNumber string) (*TrackingSession, *domain.Order, error) {
	endpoint, order, err := t.resolver.Resolve(ctx, orderNumber)
	if err != nil {
		return nil, order, err
	}
	return NewTrackingSession(orderNumber, endpoint), order, nil
}

// OpenOrder creates a session for an order the caller already fetched.
func (t *Tracker) OpenOrder(order domain.Order) (*TrackingSession, error) {
	endpoint, err := t.resolver.Endpoint(order)
	if err != nil {
		return nil, err
	}
	return NewTrackingSession(order.Number, endpoint), nil
}

// Run polls an opened session until ctx is cancelled or the order is finished.
func (t *Tracker) Run(ctx context.Context, session *TrackingSession) error {
	return t.poller.Run(ctx, session)
}

// Track resolves orderNumber and polls it until ctx is cancelled. Resolution
// errors are returned before any fetch is made.
func (t *Tracker) Track(ctx context.Context, orderNumber string) error {
	session, order, err := t.Open(ctx, orderNumber)
	if err != nil {
		return err
	}
	t.log.Info().
		Str("order", orderNumber).
		Str("vendor", order.VendorName).
		Str("amount", order.PayableAmount).
		Msg("order found")
	return t.Run(ctx, session)
}
