package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/storefront/internal/domain"
	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
)

// Kafka topics for order events.
var (
	TopicOrderCreated       = pkgkafka.Topic("order", "created")
	TopicOrderStatusChanged = pkgkafka.Topic("order", "status_changed")
)

// SourceStorefront identifies events published by this application.
const SourceStorefront = "storefront"

// OrderLine is one line of an order event.
type OrderLine struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Price     int64 `json:"price"`
}

// OrderCreatedData is the payload of an order.created event.
type OrderCreatedData struct {
	OrderID       string      `json:"order_id"`
	UserID        string      `json:"user_id"`
	TotalAmount   int64       `json:"total_amount"`
	PaymentMethod string      `json:"payment_method"`
	Items         []OrderLine `json:"items"`
}

// OrderStatusChangedData is the payload of an order.status_changed event.
type OrderStatusChangedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// Producer publishes order events. A nil publisher disables publishing.
type Producer struct {
	kafka  pkgkafka.Publisher
	logger *slog.Logger
}

// NewProducer creates an order event producer.
func NewProducer(kafka pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	if p.kafka == nil {
		return nil
	}

	lines := make([]OrderLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price})
	}
	data := OrderCreatedData{
		OrderID:       o.ID,
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount,
		PaymentMethod: o.PaymentMethod,
		Items:         lines,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, o.ID, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", o.ID),
	)
	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, o *domain.Order, from string) error {
	if p.kafka == nil {
		return nil
	}

	data := OrderStatusChangedData{
		OrderID: o.ID,
		UserID:  o.UserID,
		From:    from,
		To:      o.Status,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, o.ID, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}
	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", o.ID),
		slog.String("from", from),
		slog.String("to", o.Status),
	)
	return nil
}
