package storage

import (
	"context"
	"fmt"

	"github.com/fjod/shopeasy/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// CloseFunc releases the backend connection.
type CloseFunc func(ctx context.Context) error

// Open connects the backend named by cfg.Storage.Backend and guards every
// backend except memory with a circuit breaker.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Storage, CloseFunc, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	noop := func(context.Context) error { return nil }

	var (
		backend Storage
		closer  CloseFunc
	)

	switch cfg.Storage.Backend {
	case "memory", "":
		return NewMemoryStorage(), noop, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis connection failed: %w", err)
		}
		backend = NewRedisStorage(client, cfg.Redis.TTL)
		closer = func(context.Context) error { return client.Close() }

	case "mongo":
		db, err := ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		m := NewMongoStorage(db)
		if err := m.CreateIndexes(ctx); err != nil {
			m.Close(ctx)
			return nil, nil, err
		}
		backend = m
		closer = m.Close

	case "postgres":
		p, err := NewPostgresStorage(&Credentials{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.Name,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := p.RunMigrations(); err != nil {
			p.Close()
			return nil, nil, err
		}
		backend = p
		closer = func(context.Context) error { return p.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown cart storage backend %q", cfg.Storage.Backend)
	}

	logger.Info("cart storage connected", zap.String("backend", cfg.Storage.Backend))

	guarded := WithBreaker(backend, BreakerConfig{
		Name:                "cart-storage-" + cfg.Storage.Backend,
		ConsecutiveFailures: cfg.Storage.BreakerFailures,
		OpenTimeout:         cfg.Storage.BreakerTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return guarded, closer, nil
}
