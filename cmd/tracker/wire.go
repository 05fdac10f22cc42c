package main

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/yabalash/driver-tracker/internal/api/handler"
	"github.com/yabalash/driver-tracker/internal/core/ports"
	"github.com/yabalash/driver-tracker/internal/core/service"
	"github.com/yabalash/driver-tracker/internal/infrastructure/config"
	mongostore "github.com/yabalash/driver-tracker/internal/infrastructure/db/mongo"
	redisstore "github.com/yabalash/driver-tracker/internal/infrastructure/db/redis"
	"github.com/yabalash/driver-tracker/internal/infrastructure/dispatch"
	"github.com/yabalash/driver-tracker/internal/infrastructure/orders"
	"github.com/yabalash/driver-tracker/internal/infrastructure/report"
	"github.com/yabalash/driver-tracker/pkg/logger"
)

const userAgent = "driver-tracker/1.0"

// backends holds the optional persistence layers. A nil field means the
// backend is disabled by configuration.
type backends struct {
	rdb       *redis.Client
	mongo     *mongo.Client
	snapshots *redisstore.SnapshotStore
	history   *mongostore.ObservationRepository
}

func openBackends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*backends, error) {
	b := &backends{}

	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		b.rdb = rdb
		b.snapshots = redisstore.NewSnapshotStore(rdb, cfg.Redis.SnapshotTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("snapshot store enabled")
	}

	if cfg.Mongo.URI != "" {
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			b.close(log)
			return nil, err
		}
		b.mongo = client
		b.history = mongostore.NewObservationRepository(db)
		if err := b.history.EnsureIndexes(ctx); err != nil {
			b.close(log)
			return nil, err
		}
		log.Info().Str("database", cfg.Mongo.Database).Msg("observation history enabled")
	}

	return b, nil
}

// reporters returns the persistence sinks that are enabled.
func (b *backends) reporters() []ports.Reporter {
	var out []ports.Reporter
	if b.snapshots != nil {
		out = append(out, b.snapshots)
	}
	if b.history != nil {
		out = append(out, b.history)
	}
	return out
}

// snapshotStore and observationHistory avoid handing typed nils to interfaces.
func (b *backends) snapshotStore() ports.SnapshotStore {
	if b.snapshots == nil {
		return nil
	}
	return b.snapshots
}

func (b *backends) observationHistory() ports.ObservationHistory {
	if b.history == nil {
		return nil
	}
	return b.history
}

func (b *backends) checks() map[string]handler.Pinger {
	checks := make(map[string]handler.Pinger)
	if b.rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return b.rdb.Ping(ctx).Err() }
	}
	if b.mongo != nil {
		checks["mongodb"] = func(ctx context.Context) error { return b.mongo.Ping(ctx, nil) }
	}
	return checks
}

func (b *backends) close(log zerolog.Logger) {
	var errs []error
	if b.rdb != nil {
		errs = append(errs, b.rdb.Close())
	}
	errs = append(errs, mongostore.Disconnect(b.mongo, 5*time.Second))
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("closing backends")
	}
}

func newOrderClient(cfg *config.Config) *orders.Client {
	return orders.NewClient(orders.Config{
		BaseURL:     cfg.Dispatch.BaseURL,
		TenantCode:  cfg.Dispatch.TenantCode,
		Email:       cfg.Dispatch.Email,
		Password:    cfg.Dispatch.Password,
		DeviceToken: cfg.Dispatch.DeviceToken,
		ListLimit:   cfg.Dispatch.ListLimit,
		Timeout:     cfg.Dispatch.Timeout,
	}, logger.Component("orders"))
}

func newDispatchClient(cfg *config.Config) *dispatch.Client {
	return dispatch.NewClient(dispatch.Config{
		Timeout:   cfg.Dispatch.TrackingTimeout,
		UserAgent: userAgent,
	}, logger.Component("dispatch"))
}

// newTracker wires resolver, poller and the reporter chain: console log,
// Prometheus and any enabled persistence backend.
func newTracker(cfg *config.Config, pollCfg service.PollerConfig, directory ports.OrderDirectory, b *backends) (*service.Tracker, error) {
	sinks := append([]ports.Reporter{
		report.NewLogReporter(logger.Component("report")),
		report.NewMetricsReporter(),
	}, b.reporters()...)

	poller, err := service.NewLocationPoller(
		newDispatchClient(cfg),
		report.NewFanout(sinks...),
		pollCfg,
		logger.Component("poller"),
	)
	if err != nil {
		return nil, err
	}
	resolver := service.NewTrackingResolver(directory, logger.Component("resolver"))
	return service.NewTracker(resolver, poller, logger.Component("tracker")), nil
}
