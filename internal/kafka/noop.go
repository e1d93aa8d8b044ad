package kafka

import (
	"context"
	"log/slog"
)

// Topics carrying pharmacy events.
const (
	TopicOrderCreated     = "pharmacie.orders.created"
	TopicOrderShipped     = "pharmacie.orders.shipped"
	TopicReorderRequested = "pharmacie.reorders.requested"
)

// NoopEventBus logs events at debug level instead of sending them to a broker.
type NoopEventBus struct {
	logger *slog.Logger
}

// NewNoopEventBus returns a publisher that only logs. A nil logger falls back to slog.Default.
func NewNoopEventBus(logger *slog.Logger) *NoopEventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopEventBus{logger: logger}
}

func (n *NoopEventBus) PublishOrderCreated(ctx context.Context, orderNumber int64) error {
	n.logger.DebugContext(ctx, "event published", "topic", TopicOrderCreated, "order_number", orderNumber)
	return nil
}

func (n *NoopEventBus) PublishOrderShipped(ctx context.Context, orderNumber int64) error {
	n.logger.DebugContext(ctx, "event published", "topic", TopicOrderShipped, "order_number", orderNumber)
	return nil
}

func (n *NoopEventBus) PublishReorderRequested(ctx context.Context, supplierID int64, medicationCount int) error {
	n.logger.DebugContext(ctx, "event published",
		"topic", TopicReorderRequested,
		"supplier_id", supplierID,
		"medication_count", medicationCount,
	)
	return nil
}
