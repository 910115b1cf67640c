package main

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/dimitrije/jsoncrack-api/internal/config"
	"github.com/dimitrije/jsoncrack-api/internal/database"
	"github.com/dimitrije/jsoncrack-api/internal/store"
)

// openStore connects the configured driver and wraps it in the read cache
// when one is configured. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.ShareStore, func(), error) {
	var (
		st      store.ShareStore
		closeFn = func() {}
	)

	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		st = store.NewPostgresStore(db)
		closeFn = db.Close

	case config.StoreDriverMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("ping mongo: %w", err)
		}
		ms := store.NewMongoStore(client.Database(cfg.MongoDatabase), cfg.Share.TTL)
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, fmt.Errorf("ensure indexes: %w", err)
		}
		st = ms
		closeFn = func() { _ = client.Disconnect(context.Background()) }

	case config.StoreDriverMemory:
		log.Warn("using in-memory store; shares are lost on restart")
		st = store.NewMemoryStore()

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	if cfg.Cache.Size > 0 {
		st = store.NewCachedStore(st, cfg.Cache.Size, cfg.Cache.TTL)
	}
	return st, closeFn, nil
}
