package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gateway-dashboard/internal/models"

	"github.com/go-redis/redis/v8"
)

const keyPrefix = "report:"

type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClient(ctx context.Context, addr string, ttl time.Duration) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisClient{
		client: client,
		ttl:    ttl,
	}, nil
}

// Key builds the cache key for a report over one snapshot of the sources.
// The threshold is written at full precision; distinct thresholds never share
// an entry.
func Key(fingerprint string, threshold float64, row int) string {
	return fmt.Sprintf("%s%s:%s:%d", keyPrefix, fingerprint, strconv.FormatFloat(threshold, 'g', -1, 64), row)
}

func (r *RedisClient) StoreReport(ctx context.Context, key string, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store report in Redis: %w", err)
	}
	return nil
}

// GetReport returns (nil, false, nil) on a miss.
func (r *RedisClient) GetReport(ctx context.Context, key string) (*models.Report, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, true, nil
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}
