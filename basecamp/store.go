package basecamp

import (
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/xy-planning-network/waypoint"
	"github.com/xy-planning-network/waypoint/http/session"
	"github.com/xy-planning-network/waypoint/postgres"
)

// buildStore constructs the session.Store b.Session.Store names,
// connecting to Redis or Postgres when not already connected by an Option.
func (b *Basecamp) buildStore() (session.Store, error) {
	cfg := b.Session
	switch cfg.Store {
	case StoreMemory:
		return session.NewMemoryStore(), nil

	case StoreFiles:
		return session.NewFileStore(cfg.Dir, !b.Env.Exposed())

	case StoreFuncs:
		return session.NewFuncStore(*cfg.Funcs)

	case StoreRedis:
		if b.redis == nil {
			opts, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %s", waypoint.ErrBadConfig, redisURLEnvVar, err)
			}

			client := redis.NewClient(opts)
			b.redis = client
			b.closers = append(b.closers, client.Close)
		}

		ttl := time.Duration(cfg.Minutes) * time.Minute
		return session.NewFuncStore(session.RedisFuncs(b.redis, cfg.RedisPrefix, ttl))

	case StorePostgres:
		if b.db == nil {
			db, err := postgres.Connect(NewPostgresConfig(b.Env), b.Env)
			if err != nil {
				return nil, fmt.Errorf("%w: connecting to postgres: %s", waypoint.ErrBadConfig, err)
			}

			b.db = db
			if sqlDB, err := db.DB(); err == nil {
				b.closers = append(b.closers, sqlDB.Close)
			}
		} else if err := postgres.MigrateUp(b.db, postgres.Migrations()); err != nil {
			return nil, err
		}

		return session.NewFuncStore(postgres.SessionFuncs(b.db))

	default:
		return nil, fmt.Errorf("%w: unknown session store %q", waypoint.ErrBadConfig, cfg.Store)
	}
}
