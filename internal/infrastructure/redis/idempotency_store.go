// Package redis implements the idempotency store on Redis. SET NX gives the
// atomic claim; record expiry rides on key TTLs so no sweep is strictly
// required, though DeleteExpired still satisfies the Store contract.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/market-hub/market-hub/internal/domain/idempotency"
	"github.com/market-hub/market-hub/internal/domain/lifecycle"
)

const keyPrefix = "idem:"

// IdempotencyStore implements idempotency.Store on a Redis client.
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates a Redis-backed idempotency store.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func (s *IdempotencyStore) Claim(ctx context.Context, rec *idempotency.Record) (bool, *idempotency.Record, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, nil, fmt.Errorf("marshal idempotency record: %w", err)
	}
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		ttl = time.Second
	}
	ok, err := s.client.SetNX(ctx, keyPrefix+rec.CompositeKey, payload, ttl).Result()
	if err != nil {
		return false, nil, err
	}
	if ok {
		return true, nil, nil
	}

	data, err := s.client.Get(ctx, keyPrefix+rec.CompositeKey).Bytes()
	if err == redis.Nil {
		// Holder expired between SetNX and Get; caller retries the claim.
		return false, nil, idempotency.ErrInProgress
	}
	if err != nil {
		return false, nil, err
	}
	var existing idempotency.Record
	if err := json.Unmarshal(data, &existing); err != nil {
		return false, nil, fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	return false, &existing, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, compositeKey string, status int, body []byte, expiresAt time.Time) error {
	key := keyPrefix + compositeKey
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return lifecycle.ErrNotFound
	}
	if err != nil {
		return err
	}
	var rec idempotency.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("unmarshal idempotency record: %w", err)
	}
	rec.Status = status
	rec.Body = body
	rec.ExpiresAt = expiresAt
	payload, err := json.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("marshal idempotency record: %w", err)
	}
	return s.client.Set(ctx, key, payload, time.Until(expiresAt)).Err()
}

func (s *IdempotencyStore) Delete(ctx context.Context, compositeKey string) error {
	return s.client.Del(ctx, keyPrefix+compositeKey).Err()
}

// DeleteExpired is a no-op: Redis evicts records via key TTL.
func (s *IdempotencyStore) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}
