// Package ingest feeds the catalog from a Kafka product stream. Each
// message is a JSON-encoded product; malformed or invalid messages are
// logged and skipped so one bad record cannot stall the partition.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/megastore/catalog-search/internal/catalog"
	"github.com/megastore/catalog-search/pkg/config"
	apperrors "github.com/megastore/catalog-search/pkg/errors"
	"github.com/megastore/catalog-search/pkg/kafka"
)

// ProductMessage is the JSON payload on the product-ingest topic.
type ProductMessage struct {
	Name        string `json:"name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// Consumer reads product messages and adds them to the catalog.
type Consumer struct {
	consumer *kafka.Consumer
	cat      *catalog.Catalog
	logger   *slog.Logger
	added    atomic.Int64
	skipped  atomic.Int64
}

// New creates a Consumer on the configured product-ingest topic.
func New(cfg config.KafkaConfig, cat *catalog.Catalog) *Consumer {
	c := &Consumer{
		cat:    cat,
		logger: slog.Default().With("component", "product-ingest"),
	}
	c.consumer = kafka.NewConsumer(cfg, cfg.Topics.ProductIngest, c.handle)
	return c
}

// Start runs the consume loop until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

// Close closes the underlying Kafka reader.
func (c *Consumer) Close() error {
	return c.consumer.Close()
}

// Counts returns how many messages were added and skipped since start.
func (c *Consumer) Counts() (added, skipped int64) {
	return c.added.Load(), c.skipped.Load()
}

func (c *Consumer) handle(ctx context.Context, key, value []byte) error {
	msg, err := kafka.DecodeJSON[ProductMessage](value)
	if err != nil {
		c.logger.Warn("skipping malformed product message", "key", string(key), "error", err)
		c.skipped.Add(1)
		return nil
	}
	id, err := c.cat.Add(msg.Name, msg.Brand, msg.Category, msg.Description)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.logger.Warn("skipping invalid product", "key", string(key), "error", err)
			c.skipped.Add(1)
			return nil
		}
		return err
	}
	c.added.Add(1)
	c.logger.Debug("product ingested", "id", id, "name", msg.Name)
	return nil
}
