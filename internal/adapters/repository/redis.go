// Package repository implements data persistence adapters.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"messenger-inbox/internal/core/ports"
)

// Ensure RedisRepository implements DedupRepository.
var _ ports.DedupRepository = (*RedisRepository)(nil)

// RedisRepository implements event deduplication using a Redis cache, keyed
// on the platform message id. Facebook redelivers on timeout, so the same
// event can arrive more than once.
type RedisRepository struct {
	client *redis.Client
}

// NewRedisRepository creates a new Redis repository instance.
func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

// IsDuplicate checks whether an event id has already been processed.
func (r *RedisRepository) IsDuplicate(ctx context.Context, eventID string) (bool, error) {
	key := buildDedupKey(eventID)

	_, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}

	slog.Warn("Duplicate webhook event detected", "event_id", eventID)
	return true, nil
}

// MarkProcessed records an event id with a TTL so old entries expire on their own.
func (r *RedisRepository) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) error {
	key := buildDedupKey(eventID)

	// Value is the processing timestamp, useful when debugging redeliveries.
	if err := r.client.Set(ctx, key, time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// buildDedupKey constructs the Redis key: dedup:msg:{platform_msg_id}.
func buildDedupKey(eventID string) string {
	return fmt.Sprintf("dedup:msg:%s", eventID)
}
