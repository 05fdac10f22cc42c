package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

const defaultSnapshotTTL = 6 * time.Hour

// SnapshotStore keeps the latest observation of each order in Redis,
// msgpack-encoded.
// Key format: tracker:snapshot:<order_number>
//
// An unavailable or failed observation does not overwrite a stored fix; it
// only refreshes the status key tracker:status:<order_number>.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotStore wraps client; ttl <= 0 selects defaultSnapshotTTL.
func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &SnapshotStore{client: client, ttl: ttl}
}

// Save satisfies ports.SnapshotStore.
func (s *SnapshotStore) Save(ctx context.Context, obs domain.Observation) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, statusKey(obs.OrderNumber), string(obs.Outcome), s.ttl)

	if obs.Outcome == domain.OutcomeLocated {
		payload, err := encodeSnapshot(obs)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		pipe.Set(ctx, snapshotKey(obs.OrderNumber), payload, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot %s: %w", obs.OrderNumber, err)
	}
	return nil
}

// Report lets the store be attached to a poller as a reporter.
func (s *SnapshotStore) Report(ctx context.Context, obs domain.Observation) error {
	return s.Save(ctx, obs)
}

// Latest satisfies ports.SnapshotStore.
func (s *SnapshotStore) Latest(ctx context.Context, orderNumber string) (*domain.Observation, error) {
	raw, err := s.client.Get(ctx, snapshotKey(orderNumber)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSnapshotMissing
		}
		return nil, fmt.Errorf("load snapshot %s: %w", orderNumber, err)
	}
	obs, err := decodeSnapshot(raw)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", orderNumber, err)
	}
	return obs, nil
}

// LastOutcome satisfies ports.SnapshotStore.
func (s *SnapshotStore) LastOutcome(ctx context.Context, orderNumber string) (domain.Outcome, error) {
	v, err := s.client.Get(ctx, statusKey(orderNumber)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrSnapshotMissing
		}
		return "", fmt.Errorf("load status %s: %w", orderNumber, err)
	}
	return domain.Outcome(v), nil
}

func snapshotKey(orderNumber string) string {
	return "tracker:snapshot:" + orderNumber
}

func statusKey(orderNumber string) string {
	return "tracker:status:" + orderNumber
}

func encodeSnapshot(obs domain.Observation) ([]byte, error) {
	obs.Err = nil
	return msgpack.Marshal(&obs)
}

func decodeSnapshot(raw []byte) (*domain.Observation, error) {
	var obs domain.Observation
	if err := msgpack.Unmarshal(raw, &obs); err != nil {
		return nil, err
	}
	return &obs, nil
}
