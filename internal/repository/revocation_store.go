package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "revoked:"

// RedisRevocationStore implements auth.RevocationStore on a Redis key with
// native TTL eviction. Lapsed entries disappear without a sweeper.
type RedisRevocationStore struct {
	client *redis.Client
}

// NewRedisRevocationStore wraps a connected client.
func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// Revoke records the jti until expiresAt. Re-recording refreshes the TTL and
// never shortens protection, since callers always compute the same horizon.
func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// The token is already past its expiry; verification rejects it on
		// its own.
		return nil
	}
	if err := s.client.Set(ctx, revocationKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("revoke token %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether a live entry exists for the jti. Errors propagate
// so the caller can fail closed.
func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revocationKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("check revocation for %s: %w", jti, err)
	}
	return n > 0, nil
}
