package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coachhub/platform/internal/auth/notify"
	"github.com/coachhub/platform/internal/auth/service"
	"github.com/coachhub/platform/internal/auth/store/drivers/sqlite"
	"github.com/coachhub/platform/pkg/cryptox"
	"github.com/coachhub/platform/pkg/kvx"
)

// OpenDatabase opens the SQLite store and applies pending migrations. It also
// points password hashing at the configured pepper file. The CLI uses it
// without starting the server.
func OpenDatabase(cfg Config, logger *slog.Logger) (*sqlite.Store, error) {
	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.LoadPepper(); err != nil {
		return nil, err
	}

	db, err := sqlite.NewStore(sqlite.DSN(cfg.DatabaseFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply database migrations: %w", err)
	}

	logger.Info("database migrations applied successfully", "file", cfg.DatabaseFile)
	return db, nil
}

// OpenKV returns the store pending signups are parked in.
func OpenKV(ctx context.Context, cfg Config, logger *slog.Logger) (kvx.Store, error) {
	switch cfg.KVBackend {
	case "", "memory":
		logger.Info("using in-memory kv store")
		return kvx.NewMemory(), nil
	case "redis":
		kv, err := kvx.NewRedis(ctx, kvx.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("using redis kv store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown KV_BACKEND %q (want memory or redis)", cfg.KVBackend)
	}
}

// EventSink is an EventPublisher that owns a connection.
type EventSink interface {
	service.EventPublisher
	Close() error
}

// OpenEvents returns the publisher auth events are delivered through.
func OpenEvents(cfg Config, logger *slog.Logger) (EventSink, error) {
	switch cfg.EventsBackend {
	case "", "log":
		logger.Info("auth events are logged, not delivered")
		return notify.LogPublisher{Logger: logger}, nil
	case "amqp":
		pub, err := notify.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to amqp broker: %w", err)
		}
		logger.Info("publishing auth events to amqp", "exchange", cfg.AMQPExchange)
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown EVENTS_BACKEND %q (want log or amqp)", cfg.EventsBackend)
	}
}
