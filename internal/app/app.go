// Package app wires a library.Catalog from configuration for the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	migrations "librarian/db"
	"librarian/internal/config"
	"librarian/internal/library"
	"librarian/internal/platform/openlibrary"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps is a constructed catalog plus the resources to release on shutdown.
type Deps struct {
	Catalog *library.Catalog
	closers []func()
}

// Close releases the store and cache connections.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}

// Open builds the store, the metadata source and the catalog described by cfg.
func Open(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Deps, error) {
	d := &Deps{}

	store, err := d.openStore(ctx, cfg, logger)
	if err != nil {
		d.Close()
		return nil, err
	}

	source := d.openSource(ctx, cfg, logger)
	d.Catalog = library.NewCatalog(ctx, store, source, logger.Named("catalog"))
	return d, nil
}

func (d *Deps) openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (library.Store, error) {
	switch cfg.Store {
	case config.StorePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("create db pool: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(cfg.DatabaseDSN), err)
		}
		logger.Info("database connection OK", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)))
		d.closers = append(d.closers, pool.Close)
		if cfg.AutoMigrate {
			if err := migrations.Up(ctx, pool); err != nil {
				return nil, err
			}
			logger.Info("migrations applied")
		}
		return library.NewPostgresStore(pool), nil
	default:
		return library.NewFileStore(cfg.LibraryFile)
	}
}

func (d *Deps) openSource(ctx context.Context, cfg config.Config, logger *zap.Logger) library.MetadataSource {
	var api openlibrary.API = openlibrary.NewClient(openlibrary.Config{
		BaseURL:    cfg.OpenLibraryBaseURL,
		UserAgent:  cfg.OpenLibraryUserAgent,
		RPS:        cfg.OpenLibraryRPS,
		MaxRetries: cfg.OpenLibraryMaxRetries,
	})

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, lookup cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rdb.Close()
		} else {
			d.closers = append(d.closers, func() { _ = rdb.Close() })
			api = openlibrary.NewCachedClient(api, openlibrary.NewRedisCache(rdb), cfg.LookupCacheTTL, logger.Named("lookup_cache"))
		}
	}
	return openlibrary.NewSource(api)
}
