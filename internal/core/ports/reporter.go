package ports

import (
	"context"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

// Reporter receives one observation per poll cycle.
type Reporter interface {
	Report(ctx context.Context, obs domain.Observation) error
}

// ReporterFunc adapts a plain function to Reporter.
type ReporterFunc func(ctx context.Context, obs domain.Observation) error

func (f ReporterFunc) Report(ctx context.Context, obs domain.Observation) error {
	return f(ctx, obs)
}
