package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/yabalash/driver-tracker/internal/core/domain"
)

const (
	collectionObservations = "location_observations"
	maxHistoryLimit        = 500
)

// ObservationRepository persists every poll cycle to an append-only collection.
type ObservationRepository struct {
	col *mongo.Collection
}

func NewObservationRepository(db *mongo.Database) *ObservationRepository {
	return &ObservationRepository{col: db.Collection(collectionObservations)}
}

type observationDoc struct {
	SessionID   string                 `bson:"session_id"`
	OrderNumber string                 `bson:"order_number"`
	Endpoint    string                 `bson:"endpoint"`
	Sequence    int                    `bson:"sequence"`
	ObservedAt  time.Time              `bson:"observed_at"`
	FetchMillis int64                  `bson:"fetch_ms"`
	Outcome     string                 `bson:"outcome"`
	Location    *domain.LocationRecord `bson:"location,omitempty"`
	Movement    *domain.Movement       `bson:"movement,omitempty"`
	Tasks       []domain.TaskRecord    `bson:"tasks,omitempty"`
	ErrorKind   string                 `bson:"error_kind,omitempty"`
	Error       string                 `bson:"error,omitempty"`
	InsertedAt  time.Time              `bson:"inserted_at"`
}

// Insert satisfies ports.ObservationRepository.
func (r *ObservationRepository) Insert(ctx context.Context, obs domain.Observation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toDoc(obs)); err != nil {
		return fmt.Errorf("insert observation %s#%d: %w", obs.OrderNumber, obs.Sequence, err)
	}
	return nil
}

// Report lets the repository be attached to a poller as a reporter.
func (r *ObservationRepository) Report(ctx context.Context, obs domain.Observation) error {
	return r.Insert(ctx, obs)
}

// History returns the most recent observations of an order, newest first.
func (r *ObservationRepository) History(ctx context.Context, orderNumber string, limit int) ([]domain.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "observed_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, bson.M{"order_number": orderNumber}, opts)
	if err != nil {
		return nil, fmt.Errorf("find observations %s: %w", orderNumber, err)
	}
	defer cur.Close(ctx)

	var docs []observationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode observations %s: %w", orderNumber, err)
	}

	out := make([]domain.Observation, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}

// EnsureIndexes creates the indexes the history queries rely on.
func (r *ObservationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "order_number", Value: 1}, {Key: "observed_at", Value: -1}}},
		{Keys: bson.D{{Key: "session_id", Value: 1}, {Key: "sequence", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func toDoc(obs domain.Observation) observationDoc {
	return observationDoc{
		SessionID:   obs.SessionID,
		OrderNumber: obs.OrderNumber,
		Endpoint:    obs.Endpoint,
		Sequence:    obs.Sequence,
		ObservedAt:  obs.ObservedAt.UTC(),
		FetchMillis: obs.FetchTime.Milliseconds(),
		Outcome:     string(obs.Outcome),
		Location:    obs.Location,
		Movement:    obs.Movement,
		Tasks:       obs.Tasks,
		ErrorKind:   domain.ErrorKind(obs.Err),
		Error:       obs.Error,
		InsertedAt:  time.Now().UTC(),
	}
}

func fromDoc(d observationDoc) domain.Observation {
	return domain.Observation{
		SessionID:   d.SessionID,
		OrderNumber: d.OrderNumber,
		Endpoint:    d.Endpoint,
		Sequence:    d.Sequence,
		ObservedAt:  d.ObservedAt,
		FetchTime:   time.Duration(d.FetchMillis) * time.Millisecond,
		Outcome:     domain.Outcome(d.Outcome),
		Location:    d.Location,
		Movement:    d.Movement,
		Tasks:       d.Tasks,
		Error:       d.Error,
	}
}
