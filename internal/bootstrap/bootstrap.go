// Package bootstrap assembles the process-wide runtime: the in-memory store,
// optional snapshot database, optional Redis client and the mailer.
package bootstrap

import (
	"context"
	"fmt"
	"log"

	"peertutor/internal/cache"
	"peertutor/internal/config"
	"peertutor/internal/database"
	"peertutor/internal/mailer"
	"peertutor/internal/seed"
	"peertutor/internal/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedFixtures loads the demo catalog when the store starts empty.
	SeedFixtures bool
	// SkipRedis leaves the Redis client nil, for CLI use.
	SkipRedis bool
}

// Runtime holds the shared dependencies. DB, Redis and Snapshots are nil
// when not configured or unreachable.
type Runtime struct {
	Store     *store.Store
	DB        *gorm.DB
	Redis     *redis.Client
	Snapshots *database.SnapshotRepository
	Mailer    mailer.Mailer
}

// InitRuntime connects the configured backends, restores the last snapshot
// and seeds an empty store when asked to.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{
		Store:  store.New(),
		Mailer: mailer.New(cfg),
	}

	if cfg.DBDriver != "" {
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db
		rt.Snapshots = database.NewSnapshotRepository(db)
	}

	if !opts.SkipRedis {
		// A nil client means Redis is unreachable; callers fall back to memory.
		cache.InitRedis(cfg.RedisURL)
		rt.Redis = cache.GetClient()
	}

	if err := rt.populate(ctx, opts); err != nil {
		if cerr := rt.Close(); cerr != nil {
			log.Printf("failed to release runtime after init error: %v", cerr)
		}
		return nil, err
	}
	return rt, nil
}

// populate restores the last snapshot, or seeds the fixtures when there is
// none and seeding was requested.
func (r *Runtime) populate(ctx context.Context, opts Options) error {
	if r.Snapshots != nil {
		d, err := r.Snapshots.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		if !d.Empty() {
			if err := r.Store.Restore(d); err != nil {
				return fmt.Errorf("failed to restore snapshot: %w", err)
			}
			log.Printf("Restored snapshot: %d tutors, %d tutees, %d sessions", len(d.Tutors), len(d.Tutees), len(d.Sessions))
			return nil
		}
	}

	if !opts.SeedFixtures {
		return nil
	}
	if err := seed.Seed(r.Store); err != nil {
		return fmt.Errorf("failed to seed fixtures: %w", err)
	}
	log.Println("Seeded demo fixtures")
	if r.Snapshots != nil {
		if err := r.Snapshots.Save(ctx, r.Store.Snapshot()); err != nil {
			return fmt.Errorf("failed to save seeded snapshot: %w", err)
		}
	}
	return nil
}

// Close releases the database and Redis connections.
func (r *Runtime) Close() error {
	var firstErr error
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				firstErr = err
			}
		}
	}
	if r.Redis != nil {
		if err := r.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
