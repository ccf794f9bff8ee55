package syncstatus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "invtrack/internal/errors"
)

// DefaultRedisKey is where RedisStore keeps the marker when no key is configured.
const DefaultRedisKey = "invtrack:sync:last_completed_at"

// RedisStore keeps the marker as an RFC 3339 timestamp under a single key, so
// several worker replicas can share it.
type RedisStore struct {
	client *redis.Client
	key    string
	loc    *time.Location
}

// NewRedisStore creates a RedisStore. Times read back are converted to loc.
func NewRedisStore(client *redis.Client, key string, loc *time.Location) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RedisStore{client: client, key: key, loc: loc}
}

// Write stores the completion time. The key never expires.
func (s *RedisStore) Write(ctx context.Context, status Status) error {
	value := status.LastCompletedAt.In(s.loc).Format(time.RFC3339Nano)
	if err := s.client.Set(ctx, s.key, value, 0).Err(); err != nil {
		return fmt.Errorf("writing marker to redis: %w", err)
	}
	return nil
}

// Read loads the completion time.
func (s *RedisStore) Read(ctx context.Context) (*Status, error) {
	value, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrSyncStatusNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, fmt.Errorf("parsing marker %q: %w", value, err))
	}
	return &Status{LastCompletedAt: t.In(s.loc)}, nil
}
