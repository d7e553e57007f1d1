package main

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/config"
	"github.com/Ramsey-B/fern/internal/repositories/match"
	"github.com/Ramsey-B/fern/internal/repositories/notification"
	"github.com/Ramsey-B/fern/internal/repositories/report"
	"github.com/Ramsey-B/fern/internal/repositories/user"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/imagesim"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/lifecycle"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/notify"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/startup"
)

// app holds the infrastructure clients and the services built on them.
// Infrastructure fields are nil when the matching feature is disabled.
type app struct {
	cfg    *config.Config
	logger ectologger.Logger

	db       database.DB
	redis    *redis.Client
	graph    *graph.Client
	producer *kafka.Producer

	manager *lifecycle.Manager
}

func (a *app) connectDatabase(ctx context.Context) error {
	db, err := database.Open(ctx, database.ConnectionConfig{
		Driver:          a.cfg.DatabaseDriver,
		Host:            a.cfg.DatabaseHost,
		Port:            a.cfg.DatabasePort,
		User:            a.cfg.DatabaseUserName,
		Password:        a.cfg.DatabasePassword,
		Name:            a.cfg.DatabaseName,
		SSLMode:         a.cfg.DatabaseSSLMode,
		MaxOpenConns:    a.cfg.DatabaseMaxOpenConns,
		MaxIdleConns:    a.cfg.DatabaseMaxIdleConns,
		ConnMaxLifetime: a.cfg.DatabaseConnMaxLifetime,
	}, a.logger)
	if err != nil {
		return err
	}
	a.db = db
	return nil
}

func (a *app) migrate() error {
	ms := database.NewMigrationService(a.logger, &database.MigrationConfig{
		MigrationFolderPath: a.cfg.DatabaseMigrationFolderPath,
		Version:             uint(a.cfg.DatabaseMigrationVersion),
		Force:               a.cfg.DatabaseMigrationForce,
		AutoRollback:        a.cfg.DatabaseMigrationAutoRollback,
	})
	return ms.MigratePostgres(database.SQLX(a.db), a.cfg.DatabaseName)
}

// dependencies registers infrastructure with the startup sequencer
func (a *app) dependencies(s *startup.Startup, migrate bool) {
	s.AddDependency(startup.Func{
		Name: "database",
		OnStart: func(ctx context.Context) error {
			if a.db == nil {
				if err := a.connectDatabase(ctx); err != nil {
					return err
				}
			}
			if migrate {
				return a.migrate()
			}
			return nil
		},
		OnStop: func(context.Context) error {
			if a.db == nil {
				return nil
			}
			return a.db.Close()
		},
	})

	if a.cfg.RedisEnabled {
		s.AddDependency(startup.Func{
			Name: "redis",
			OnStart: func(ctx context.Context) error {
				client, err := redis.NewClient(ctx, redis.Config{
					Host:     a.cfg.RedisHost,
					Port:     a.cfg.RedisPort,
					Password: a.cfg.RedisPassword,
					DB:       a.cfg.RedisDB,
				}, a.logger)
				if err != nil {
					return err
				}
				a.redis = client
				return nil
			},
			OnStop: func(context.Context) error {
				if a.redis == nil {
					return nil
				}
				return a.redis.Close()
			},
		})
	}

	if a.cfg.GraphEnabled {
		s.AddDependency(startup.Func{
			Name: "graph",
			OnStart: func(ctx context.Context) error {
				client, err := graph.NewClient(graph.Config{
					Host:     a.cfg.GraphHost,
					Port:     a.cfg.GraphPort,
					Username: a.cfg.GraphUsername,
					Password: a.cfg.GraphPassword,
				}, a.logger)
				if err != nil {
					return err
				}
				if err := client.VerifyConnectivity(ctx); err != nil {
					_ = client.Close(ctx)
					return fmt.Errorf("graph unreachable: %w", err)
				}
				a.graph = client
				return nil
			},
			OnStop: func(ctx context.Context) error {
				if a.graph == nil {
					return nil
				}
				return a.graph.Close(ctx)
			},
		})
	}

	if a.cfg.KafkaProducerEnabled {
		s.AddDependency(startup.Func{
			Name: "kafka-producer",
			OnStart: func(context.Context) error {
				a.producer = kafka.NewProducer(kafka.ProducerConfig{
					Brokers:     a.cfg.Brokers(),
					Topic:       a.cfg.KafkaEventsTopic,
					Compression: a.cfg.KafkaCompression,
				}, a.logger)
				return nil
			},
			OnStop: func(context.Context) error {
				if a.producer == nil {
					return nil
				}
				return a.producer.Close()
			},
		})
	}
}

// build wires repositories and services once infrastructure is up
func (a *app) build() error {
	matchingConfig, err := a.cfg.MatchingConfig()
	if err != nil {
		return fmt.Errorf("invalid matching config: %w", err)
	}

	reports := report.NewRepository(a.db, a.logger)
	matches := match.NewRepository(a.db, reports, a.logger)
	notifications := notification.NewRepository(a.db, a.logger)
	users := user.NewRepository(a.db, a.logger)

	var sink events.Sink
	if a.producer != nil {
		sink = a.producer
	}
	emitter := events.NewEmitter(sink, a.logger)

	var cache imagesim.Cache
	if a.redis != nil {
		cache = imagesim.NewRedisCache(a.redis, a.cfg.ImageCacheTTL)
	}
	images := imagesim.NewEngine(
		imagesim.NewHTTPLoader(a.cfg.ImageFetchTimeout, a.cfg.ImageMaxBytes),
		cache,
		a.cfg.ImageConfig(),
		a.logger,
	)

	deps := lifecycle.Dependencies{
		Finder:   matching.NewFinder(reports, images, matchingConfig, a.logger),
		Reports:  reports,
		Matches:  matches,
		Users:    users,
		Notifier: notify.NewStoreNotifier(notifications, users, emitter, a.logger),
		Emitter:  emitter,
		RunInTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return database.RunInTx(ctx, a.db, fn)
		},
		LockTTL: a.cfg.AutoMatchLockTTL,
	}
	if a.redis != nil {
		deps.Locker = redis.NewLocker(a.redis, "")
	}
	if a.graph != nil {
		deps.Projection = graph.NewMatchProjection(a.graph, a.logger)
	}

	a.manager = lifecycle.NewManager(deps, a.logger)
	return nil
}
