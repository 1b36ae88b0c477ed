package undo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/plannivo/booking-engine/internal/domain"
	pkgredis "github.com/plannivo/booking-engine/pkg/redis"
)

const redisKeyPrefix = "undo:token:"

// RedisStore backs undo tokens with Redis so the token survives across
// instances. Expiry is Redis TTL; single redemption is GETDEL, which is
// atomic on the server.
type RedisStore struct {
	client *pkgredis.Client
}

// NewRedisStore creates a RedisStore
func NewRedisStore(client *pkgredis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores the payload under the token for the given TTL
func (s *RedisStore) Put(ctx context.Context, token string, payload Payload, ttl time.Duration) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal undo payload: %w", err)
	}
	if err := s.client.Client().Set(ctx, redisKeyPrefix+token, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store undo token: %w", err)
	}
	return nil
}

// Redeem removes and returns the payload exactly once
func (s *RedisStore) Redeem(ctx context.Context, token string) (Payload, error) {
	data, err := s.client.Client().GetDel(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Payload{}, domain.ErrUndoTokenGone
		}
		return Payload{}, fmt.Errorf("failed to redeem undo token: %w", err)
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("failed to unmarshal undo payload: %w", err)
	}
	return payload, nil
}

// Stop is a no-op; the Redis client lifecycle is owned by the container
func (s *RedisStore) Stop() {}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
