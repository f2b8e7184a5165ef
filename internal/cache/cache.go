// Package cache stores upstream lyric lookups for a limited time. Every
// backend treats its own failures as misses so a broken cache never fails a
// lookup.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"lyricfetch/internal/config"
	"lyricfetch/internal/logger"
)

// KeyPrefix namespaces every entry this package writes.
const KeyPrefix = "lyrics_cache:"

// Cache is a byte store with per-entry expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Close() error
}

// Key derives the entry key for a call of the named operation.
func Key(op string, args ...string) string {
	sum := md5.Sum([]byte(op + ":" + strings.Join(args, "\x1f")))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

// Remember returns the cached value for key, or calls fn and stores its
// result. Failed calls are not stored.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if data, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
	}

	v, err := fn()
	if err != nil {
		return v, err
	}
	if data, err := json.Marshal(v); err == nil {
		c.Set(ctx, key, data, ttl)
	}
	return v, nil
}

// Open picks the backend named by the config: Redis when a URL is set, SQLite
// when a path is set, otherwise a cache that stores nothing.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (Cache, error) {
	log = log.Component("cache")
	switch {
	case cfg.RedisURL != "":
		return NewRedis(ctx, cfg.RedisURL, log)
	case cfg.CachePath != "":
		return NewSQLite(ctx, config.ExpandHome(cfg.CachePath), log)
	}
	log.Debug("no cache configured")
	return Nop{}, nil
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (Nop) Set(context.Context, string, []byte, time.Duration) {}

func (Nop) Close() error { return nil }
