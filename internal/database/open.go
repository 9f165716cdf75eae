package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/config"
	"github.com/saturnino-fabrica-de-software/onlyfachas/internal/store"
)

// OpenStore builds the store selected by STORE_BACKEND. The returned func
// releases its connections.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		pool, err := NewPgxPool(ctx, DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Info("using postgres store")
		return store.NewPostgresStore(pool, cfg.StoreMaxValueBytes), pool.Close, nil

	case config.StoreRedis:
		st := store.NewRedisStore(store.RedisConfig{
			Addr:          cfg.RedisAddr,
			Password:      cfg.RedisPassword,
			DB:            cfg.RedisDB,
			MaxValueBytes: cfg.StoreMaxValueBytes,
		})
		if err := st.Ping(ctx); err != nil {
			_ = st.Close()
			return nil, nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.Info("using redis store", "addr", cfg.RedisAddr)
		return st, func() { _ = st.Close() }, nil

	default:
		logger.Warn("using in-memory store, state is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}
}
