package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	scanCount = 100

	// redisGrace keeps keys in Redis past the expiration window
	// so that Body.Expired, not Redis, decides when a session ends.
	redisGrace = time.Minute
)

// RedisFuncs constructs Funcs storing Bodies in Redis under prefix+id.
//
// ttl is the expiration window. Keys outlive it by a minute,
// after which Redis itself drops them; Expire additionally scans prefix
// for stale Bodies in case ttl is zero.
func RedisFuncs(client redis.UniversalClient, prefix string, ttl time.Duration) Funcs {
	keyTTL := redisKeyTTL(ttl)
	return Funcs{
		Get: func(ctx context.Context, id string) (*Body, error) {
			raw, err := client.Get(ctx, prefix+id).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}

			if err != nil {
				return nil, err
			}

			return decodeBody(raw)
		},
		Save: func(ctx context.Context, id string, body *Body) error {
			raw, err := encodeBody(body, false)
			if err != nil {
				return err
			}

			return client.Set(ctx, prefix+id, raw, keyTTL).Err()
		},
		Delete: func(ctx context.Context, id string) error {
			return client.Del(ctx, prefix+id).Err()
		},
		Expire: func(ctx context.Context, olderThan time.Time) (int, error) {
			var n int
			iter := client.Scan(ctx, 0, prefix+"*", scanCount).Iterator()
			for iter.Next(ctx) {
				key := iter.Val()
				raw, err := client.Get(ctx, key).Bytes()
				if errors.Is(err, redis.Nil) {
					continue
				}

				if err != nil {
					return n, err
				}

				b, err := decodeBody(raw)
				if err == nil && !b.LastCheck.Before(olderThan) {
					continue
				}

				if err := client.Del(ctx, key).Err(); err != nil {
					return n, err
				}

				n++
			}

			return n, iter.Err()
		},
	}
}

// redisKeyTTL is the expiration of keys for sessions expiring after window.
// Zero keeps keys until deleted.
func redisKeyTTL(window time.Duration) time.Duration {
	if window <= 0 {
		return 0
	}

	return window + redisGrace
}
