/**
 * @description
 * Redis connection manager using go-redis.
 * Backs the trending search counters and the price-drop pub/sub channel.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 */

package db

import (
	"context"
	"time"

	"github.com/groceryscout/backend/internal/config"
	"github.com/groceryscout/backend/internal/logger"
	"github.com/redis/go-redis/v9"
)

const redisClientName = "groceryscout"

// redisOptions parses REDIS_URL and fills in timeouts and pool sizing. Values set in
// the URL query (dial_timeout, pool_size, ...) win over the defaults. The pool keeps
// one connection aside for the price-drop subscription.
func redisOptions(cfg *config.Config) (*redis.Options, error) {
	opt, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, err
	}

	defaultDuration(&opt.ReadTimeout, 5*time.Second)
	defaultDuration(&opt.WriteTimeout, 5*time.Second)
	defaultDuration(&opt.DialTimeout, 5*time.Second)
	defaultDuration(&opt.PoolTimeout, 5*time.Second)
	defaultDuration(&opt.MinRetryBackoff, 200*time.Millisecond)
	defaultDuration(&opt.MaxRetryBackoff, 2*time.Second)

	if opt.MaxRetries == 0 {
		opt.MaxRetries = 2
	}
	if opt.PoolSize == 0 {
		opt.PoolSize = 20
	}
	if opt.MinIdleConns == 0 {
		opt.MinIdleConns = 5
	}
	if opt.ClientName == "" {
		opt.ClientName = redisClientName
	}
	return opt, nil
}

func defaultDuration(d *time.Duration, v time.Duration) {
	if *d == 0 {
		*d = v
	}
}

// ConnectRedis opens the client backing trending counters and price-drop pub/sub
func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	opt, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), opt.DialTimeout)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("✅ Connected to Redis (pool %d)", opt.PoolSize)
	return client, nil
}
