package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-manager/backend/internal/config"
)

var ErrCacheMiss = errors.New("cache miss")

type RedisCache struct {
	client *redis.Client
	prefix string
}

type CacheConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// KeyPrefix namespaces every key this process writes.
	KeyPrefix string
}

func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Addr:         "localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		KeyPrefix:    "todo-manager:",
	}
}

func CacheConfigFrom(cfg *config.Config) *CacheConfig {
	cc := DefaultCacheConfig()
	cc.Addr = cfg.GetRedisAddr()
	cc.Password = cfg.Redis.Password
	cc.DB = cfg.Redis.DB
	cc.PoolSize = cfg.Redis.PoolSize
	cc.MinIdleConns = cfg.Redis.MinIdleConns
	cc.MaxRetries = cfg.Redis.MaxRetries
	cc.DialTimeout = cfg.Redis.DialTimeout
	cc.ReadTimeout = cfg.Redis.ReadTimeout
	cc.WriteTimeout = cfg.Redis.WriteTimeout
	return cc
}

// NewRedisCache connects and pings; an unreachable server is an error.
func NewRedisCache(ctx context.Context, cc *CacheConfig) (*RedisCache, error) {
	if cc == nil {
		cc = DefaultCacheConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cc.Addr,
		Password:     cc.Password,
		DB:           cc.DB,
		PoolSize:     cc.PoolSize,
		MinIdleConns: cc.MinIdleConns,
		MaxRetries:   cc.MaxRetries,
		DialTimeout:  cc.DialTimeout,
		ReadTimeout:  cc.ReadTimeout,
		WriteTimeout: cc.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, cc.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cc.Addr, err)
	}

	return &RedisCache{client: client, prefix: cc.KeyPrefix}, nil
}

// NewRedisCacheFromClient wraps an existing client, used by tests and by
// callers sharing one client with the rate limiter.
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) key(k string) string {
	return r.prefix + k
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return r.client.Set(ctx, r.key(key), data, ttl).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to unmarshal cache value: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// DeletePattern removes matching keys with SCAN so large keyspaces never
// block the server the way KEYS would.
func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, r.key(pattern), 100).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}

	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisCache) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Stats() map[string]interface{} {
	ps := r.client.PoolStats()

	return map[string]interface{}{
		"type":        "redis",
		"hits":        ps.Hits,
		"misses":      ps.Misses,
		"timeouts":    ps.Timeouts,
		"total_conns": ps.TotalConns,
		"idle_conns":  ps.IdleConns,
		"stale_conns": ps.StaleConns,
	}
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
