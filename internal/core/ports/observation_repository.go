package ports

import (
	"context"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

// ObservationRepository persists every poll cycle to an append-only history.
type ObservationRepository interface {
	Insert(ctx context.Context, obs domain.Observation) error
}

// ObservationHistory reads back the recorded observations of an order,
// newest first.
type ObservationHistory interface {
	History(ctx context.Context, orderNumber string, limit int) ([]domain.Observation, error)
}
