package database

import (
	"context"

	"github.com/lumeahq/lumea/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisDB holds the Redis client used for click dedup counters.
type RedisDB struct {
	Client *redis.Client
}

// NewRedisDB connects to Redis with timeouts and pool sizing from
// configuration and verifies the connection with a ping.
func NewRedisDB(ctx context.Context, cfg config.RedisConfig) (*RedisDB, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisDB{Client: client}, nil
}

// Close closes the Redis connection.
func (db *RedisDB) Close() error {
	if db.Client != nil {
		return db.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection.
func (db *RedisDB) Ping(ctx context.Context) error {
	return db.Client.Ping(ctx).Err()
}
