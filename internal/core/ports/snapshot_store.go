package ports

import (
	"context"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

// SnapshotStore keeps the latest observation per order.
type SnapshotStore interface {
	Save(ctx context.Context, obs domain.Observation) error
	// Latest returns domain.ErrSnapshotMissing when nothing was recorded for the order.
	Latest(ctx context.Context, orderNumber string) (*domain.Observation, error)
	// LastOutcome is the outcome of the most recent poll, which may be newer
	// than the stored fix.
	LastOutcome(ctx context.Context, orderNumber string) (domain.Outcome, error)
}
