package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/yatrasecure/safetyscore/server/models"
	"go.uber.org/zap"
)

const redisKeyPrefix = "safetyscore:"

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisCache(host string, port int, password string, db int, poolSize int, ttl time.Duration, logger *zap.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("host", host),
		zap.Int("port", port),
		zap.Int("db", db))

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value *models.SafetyPrediction) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

func (c *RedisCache) SetWithTTL(ctx context.Context, key string, value *models.SafetyPrediction, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal prediction: %w", err)
	}
	return c.client.Set(ctx, redisKeyPrefix+key, data, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.SafetyPrediction, error) {
	data, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var prediction models.SafetyPrediction
	if err := json.Unmarshal(data, &prediction); err != nil {
		return nil, fmt.Errorf("unmarshal prediction: %w", err)
	}
	return &prediction, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (c *RedisCache) GetStats(ctx context.Context) (*CacheStats, error) {
	info, err := c.client.Info(ctx, "memory").Result()
	if err != nil {
		return &CacheStats{Connected: false, Info: err.Error()}, nil
	}
	return &CacheStats{Connected: true, Info: info}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
