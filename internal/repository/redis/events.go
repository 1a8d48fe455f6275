package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const eventKeyPrefix = "event:seen:"

// EventStore remembers handled Kafka event ids so redelivered events are
// skipped. It satisfies kafka.IdempotencyStore.
type EventStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewEventStore creates an event store keeping ids for ttl.
func NewEventStore(client *redis.Client, ttl time.Duration) *EventStore {
	return &EventStore{client: client, ttl: ttl}
}

// Seen reports whether eventID was handled.
func (s *EventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := s.client.Exists(ctx, eventKeyPrefix+eventID).Result()
	if err != nil {
		return false, fmt.Errorf("redis check event: %w", err)
	}
	return n > 0, nil
}

// MarkSeen records eventID as handled.
func (s *EventStore) MarkSeen(ctx context.Context, eventID string) error {
	if err := s.client.Set(ctx, eventKeyPrefix+eventID, 1, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis mark event: %w", err)
	}
	return nil
}
