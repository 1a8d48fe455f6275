package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/storefront/pkg/logger"
)

const tracerName = "github.com/utafrali/storefront/pkg/kafka"

// Handler processes one event. Returning an error triggers a retry.
type Handler func(ctx context.Context, event *Event) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterPublisher parks messages the handler gave up on.
type DeadLetterPublisher interface {
	PublishDeadLetter(ctx context.Context, msg kafka.Message, cause error, group string) error
}

type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string

	// MaxAttempts bounds handler calls per message; 0 means 3.
	MaxAttempts int
	// RetryBackoff is multiplied by the attempt number; 0 means 100ms.
	RetryBackoff time.Duration
}

// Consumer reads a consumer group and commits every message once it has
// been handled, dead-lettered or dropped, so a poison message never stalls
// a partition.
type Consumer struct {
	reader    messageReader
	handler   Handler
	dlq       DeadLetterPublisher
	group     string
	attempts  int
	backoff   time.Duration
	logger    *slog.Logger
	closeOnce sync.Once
}

func NewConsumer(cfg ConsumerConfig, handler Handler, dlq DeadLetterPublisher, logger *slog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		StartOffset: kafka.FirstOffset,
	})
	return newConsumer(reader, cfg, handler, dlq, logger)
}

func newConsumer(reader messageReader, cfg ConsumerConfig, handler Handler, dlq DeadLetterPublisher, logger *slog.Logger) *Consumer {
	c := &Consumer{
		reader:   reader,
		handler:  handler,
		dlq:      dlq,
		group:    cfg.GroupID,
		attempts: cfg.MaxAttempts,
		backoff:  cfg.RetryBackoff,
		logger:   logger,
	}
	if c.attempts <= 0 {
		c.attempts = 3
	}
	if c.backoff <= 0 {
		c.backoff = 100 * time.Millisecond
	}
	return c
}

// Run consumes until ctx is cancelled, then closes the reader.
func (c *Consumer) Run(ctx context.Context) error {
	defer func() { _ = c.Close() }()
	c.logger.Info("consumer started", slog.String("group", c.group))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("group", c.group))
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			if !wait(ctx, c.backoff) {
				return nil
			}
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Error("failed to commit message",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	ctx = otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers: &msg.Headers})
	ctx, span := otel.Tracer(tracerName).Start(ctx, "kafka.consume "+msg.Topic,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.String("messaging.kafka.consumer.group", c.group),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := DecodeEvent(msg.Value)
	if err != nil {
		span.RecordError(err)
		c.logger.ErrorContext(ctx, "malformed message", slog.String("topic", msg.Topic), slog.String("error", err.Error()))
		c.giveUp(ctx, msg, err, "malformed")
		return
	}
	if event.CorrelationID != "" {
		ctx = logger.WithCorrelationID(ctx, event.CorrelationID)
	}
	span.SetAttributes(attribute.String("messaging.event.type", event.Type))

	start := time.Now()
	err = c.handleWithRetry(ctx, msg, event)
	handleDuration.WithLabelValues(msg.Topic, c.group).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		consumedTotal.WithLabelValues(msg.Topic, c.group, "ok").Inc()
	case errors.Is(err, ErrDuplicate):
		consumedTotal.WithLabelValues(msg.Topic, c.group, "duplicate").Inc()
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.giveUp(ctx, msg, err, "")
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, msg kafka.Message, event *Event) error {
	var err error
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err = c.handler(ctx, event); err == nil || errors.Is(err, ErrDuplicate) {
			return err
		}
		c.logger.WarnContext(ctx, "handler failed",
			slog.String("event_type", event.Type),
			slog.String("key", event.Key),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
		if attempt < c.attempts && !wait(ctx, time.Duration(attempt)*c.backoff) {
			return ctx.Err()
		}
	}
	return err
}

// giveUp dead-letters msg when a DLQ is configured and drops it otherwise.
func (c *Consumer) giveUp(ctx context.Context, msg kafka.Message, cause error, outcome string) {
	if c.dlq != nil {
		if err := c.dlq.PublishDeadLetter(ctx, msg, cause, c.group); err == nil {
			if outcome == "" {
				outcome = "dead_lettered"
			}
			consumedTotal.WithLabelValues(msg.Topic, c.group, outcome).Inc()
			return
		}
	}
	if outcome == "" {
		outcome = "dropped"
	}
	consumedTotal.WithLabelValues(msg.Topic, c.group, outcome).Inc()
	c.logger.ErrorContext(ctx, "message dropped",
		slog.String("topic", msg.Topic),
		slog.Int("partition", msg.Partition),
		slog.Int64("offset", msg.Offset),
		slog.String("error", cause.Error()),
	)
}

// Close is safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.reader.Close() })
	return err
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
