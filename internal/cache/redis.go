package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	redisClient "github.com/go-redis/redis/v8"

	"lyricfetch/internal/logger"
)

// Redis keeps entries in a Redis server using SET with expiry.
type Redis struct {
	client *redisClient.Client
	logger *logger.Logger
}

// NewRedis connects to the server at url (redis:// or rediss://). An
// unreachable server is logged and tolerated; entries then simply miss.
func NewRedis(ctx context.Context, url string, log *logger.Logger) (*Redis, error) {
	opt, err := redisClient.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opt.DialTimeout = 10 * time.Second

	r := &Redis{client: redisClient.NewClient(opt), logger: log}
	if err := r.client.Ping(ctx).Err(); err != nil {
		log.Warn("redis at %s unreachable: %v", opt.Addr, err)
	} else {
		log.Info("using redis cache at %s", opt.Addr)
	}
	return r, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redisClient.Nil) {
			r.logger.Debug("get %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Debug("set %s: %v", key, err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
