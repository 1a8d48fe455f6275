package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/internal/repository"
)

const (
	idempotencyKeyPrefix = "idempotency:"
	// Values are "<fingerprint>|<order id>"; the order id is empty while the
	// first request runs.
	idempotencySeparator = "|"
)

// IdempotencyRepository implements repository.IdempotencyRepository using
// SET NX reservations.
type IdempotencyRepository struct {
	client *redis.Client
}

// NewIdempotencyRepository creates a new Redis-backed idempotency repository.
func NewIdempotencyRepository(client *redis.Client) *IdempotencyRepository {
	return &IdempotencyRepository{client: client}
}

// Reserve claims key for ttl. When the key is taken it reports the
// fingerprint that claimed it and the order id it resolved to, which is ""
// while the first request is still running.
func (r *IdempotencyRepository) Reserve(ctx context.Context, key, fingerprint string, ttl time.Duration) (bool, repository.IdempotencyRecord, error) {
	k := idempotencyKeyPrefix + key

	ok, err := r.client.SetNX(ctx, k, fingerprint+idempotencySeparator, ttl).Result()
	if err != nil {
		return false, repository.IdempotencyRecord{}, fmt.Errorf("redis reserve idempotency key: %w", err)
	}
	if ok {
		return true, repository.IdempotencyRecord{}, nil
	}

	val, err := r.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET; report it as in flight so the
			// caller retries.
			return false, repository.IdempotencyRecord{Fingerprint: fingerprint}, nil
		}
		return false, repository.IdempotencyRecord{}, fmt.Errorf("redis read idempotency key: %w", err)
	}
	fp, orderID, _ := strings.Cut(val, idempotencySeparator)
	return false, repository.IdempotencyRecord{Fingerprint: fp, OrderID: orderID}, nil
}

// Complete binds key to orderID.
func (r *IdempotencyRepository) Complete(ctx context.Context, key, fingerprint, orderID string, ttl time.Duration) error {
	val := fingerprint + idempotencySeparator + orderID
	if err := r.client.Set(ctx, idempotencyKeyPrefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis complete idempotency key: %w", err)
	}
	return nil
}

// Release frees a reservation so the client can retry.
func (r *IdempotencyRepository) Release(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis release idempotency key: %w", err)
	}
	return nil
}
