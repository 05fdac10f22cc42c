package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yabalash/driver-tracker/internal/core/domain"
	"github.com/yabalash/driver-tracker/internal/core/ports"
)

// TrackingResolver turns an order number into the dispatch API endpoint that
// serves its live location.
type TrackingResolver struct {
	orders ports.OrderDirectory
	log    zerolog.Logger
}

func NewTrackingResolver(orders ports.OrderDirectory, log zerolog.Logger) *TrackingResolver {
	return &TrackingResolver{orders: orders, log: log}
}

// Resolve returns the API endpoint and the order it belongs to. A missing
// order or an order without a tracking URL yields a *domain.NotFoundError.
func (r *TrackingResolver) Resolve(ctx context.Context, orderNumber string) (string, *domain.Order, error) {
	order, err := r.orders.FindOrder(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, &domain.NotFoundError{OrderNumber: orderNumber, Reason: "order not listed"}
		}
		return "", nil, fmt.Errorf("resolve order %s: %w", orderNumber, err)
	}
	endpoint, err := r.Endpoint(*order)
	if err != nil {
		return "", order, err
	}
	return endpoint, order, nil
}

// Endpoint maps an order that is already in hand to its API endpoint without
// asking the directory again.
func (r *TrackingResolver) Endpoint(order domain.Order) (string, error) {
	if !order.HasTracking() {
		return "", &domain.NotFoundError{OrderNumber: order.Number, Reason: "no tracking url issued"}
	}

	endpoint := domain.TrackingAPIURL(order.TrackingURL)
	r.log.Debug().
		Str("order", order.Number).
		Str("tracking_url", order.TrackingURL).
		Str("endpoint", endpoint).
		Msg("tracking endpoint resolved")
	return endpoint, nil
}
