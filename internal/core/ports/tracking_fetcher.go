package ports

import (
	"context"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

// TrackingFetcher retrieves the live location and task payload of a tracking endpoint.
type TrackingFetcher interface {
	// Fetch returns a snapshot whose Location is nil when no driver is assigned.
	// Failures are *domain.NetworkError, *domain.HTTPError or *domain.ParseError.
	Fetch(ctx context.Context, endpoint string) (*domain.TrackingSnapshot, error)
}
