package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// DLQTopic names the dead-letter topic for a source topic.
func DLQTopic(topic string) string {
	return TopicPrefix + ".dlq." + topic
}

// DLQProducer writes abandoned messages to their dead-letter topic.
type DLQProducer struct {
	writer messageWriter
	logger *slog.Logger
}

func NewDLQProducer(brokers []string, logger *slog.Logger) *DLQProducer {
	return &DLQProducer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              1,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		logger: logger,
	}
}

func (d *DLQProducer) PublishDeadLetter(ctx context.Context, msg kafka.Message, cause error, group string) error {
	dl := deadLetter(msg, cause, group)
	if err := d.writer.WriteMessages(ctx, dl); err != nil {
		d.logger.ErrorContext(ctx, "failed to dead-letter message",
			slog.String("dlq_topic", dl.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("publish to %s: %w", dl.Topic, err)
	}
	d.logger.WarnContext(ctx, "message dead-lettered",
		slog.String("dlq_topic", dl.Topic),
		slog.String("source_topic", msg.Topic),
		slog.Int64("offset", msg.Offset),
	)
	return nil
}

// deadLetter copies msg onto its DLQ topic, recording where it came from.
func deadLetter(msg kafka.Message, cause error, group string) kafka.Message {
	headers := make([]kafka.Header, 0, len(msg.Headers)+5)
	headers = append(headers, msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "dlq.source_topic", Value: []byte(msg.Topic)},
		kafka.Header{Key: "dlq.partition", Value: []byte(strconv.Itoa(msg.Partition))},
		kafka.Header{Key: "dlq.offset", Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		kafka.Header{Key: "dlq.group", Value: []byte(group)},
	)
	if cause != nil {
		headers = append(headers, kafka.Header{Key: "dlq.error", Value: []byte(cause.Error())})
	}
	return kafka.Message{
		Topic:   DLQTopic(msg.Topic),
		Key:     msg.Key,
		Value:   msg.Value,
		Headers: headers,
	}
}

func (d *DLQProducer) Close() error {
	return d.writer.Close()
}
