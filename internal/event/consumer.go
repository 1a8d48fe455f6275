package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// DashboardInvalidator drops cached dashboard statistics.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Consumer reacts to order events on behalf of the admin dashboard.
type Consumer struct {
	cache  DashboardInvalidator
	logger *slog.Logger
}

// NewConsumer creates an order event consumer.
func NewConsumer(cache DashboardInvalidator, logger *slog.Logger) *Consumer {
	return &Consumer{
		cache:  cache,
		logger: logger,
	}
}

// Topics returns the topics Handle understands.
func (c *Consumer) Topics() []string {
	return []string{TopicOrderCreated, TopicOrderStatusChanged}
}

// Handle dispatches an event by type. Unknown types are ignored.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.Type {
	case TopicOrderCreated:
		var data OrderCreatedData
		if err := event.Payload(&data); err != nil {
			return err
		}
		return c.invalidate(ctx, data.OrderID, event.Type)
	case TopicOrderStatusChanged:
		var data OrderStatusChangedData
		if err := event.Payload(&data); err != nil {
			return err
		}
		return c.invalidate(ctx, data.OrderID, event.Type)
	default:
		c.logger.DebugContext(ctx, "ignoring event", slog.String("event_type", event.Type))
		return nil
	}
}

func (c *Consumer) invalidate(ctx context.Context, orderID, eventType string) error {
	if err := c.cache.Invalidate(ctx); err != nil {
		return fmt.Errorf("invalidate dashboard after %s: %w", eventType, err)
	}
	c.logger.DebugContext(ctx, "dashboard cache invalidated",
		slog.String("order_id", orderID),
		slog.String("event_type", eventType),
	)
	return nil
}
