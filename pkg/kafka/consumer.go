package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/megastore/catalog-search/pkg/config"
	"github.com/segmentio/kafka-go"
)

// fetchBackoff is the pause after a failed fetch; without it a broker
// outage spins the consume loop.
const fetchBackoff = 500 * time.Millisecond

// MessageHandler processes one Kafka message. A nil return commits the
// offset; an error leaves it uncommitted so the message is redelivered.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer reads a topic within the configured consumer group and feeds
// each message to a MessageHandler.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	logger  *slog.Logger
}

// NewConsumer creates a Consumer for topic starting at the latest offset.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			GroupID:     cfg.ConsumerGroup,
			Topic:       topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1e3,
			MaxBytes:    10e6,
			MaxWait:     time.Second,
		}),
		handler: handler,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic),
	}
}

// Start consumes until ctx is cancelled, then closes the reader. Fetch
// errors back off before the next attempt; handler errors skip the commit.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return c.reader.Close()
			}
			c.logger.Error("fetch failed", "error", err)
			select {
			case <-time.After(fetchBackoff):
			case <-ctx.Done():
				return c.reader.Close()
			}
			continue
		}

		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Error("message handling failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("offset commit failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// DecodeJSON unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
