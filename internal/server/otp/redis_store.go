package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps codes in Redis with a TTL, so expiry needs no sweeper.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func key(purpose Purpose, subject string) string {
	return fmt.Sprintf("otp:%s:%s", purpose, subject)
}

func (s *RedisStore) Put(ctx context.Context, purpose Purpose, subject, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key(purpose, subject), code, ttl).Err(); err != nil {
		return fmt.Errorf("otp store error: %w", err)
	}
	return nil
}

// Consume removes the stored code with a single GETDEL and compares the
// result, so two concurrent attempts can never both verify.
func (s *RedisStore) Consume(ctx context.Context, purpose Purpose, subject, code string) (bool, error) {
	stored, err := s.client.GetDel(ctx, key(purpose, subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("otp store error: %w", err)
	}
	return codesEqual(stored, code), nil
}
