package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/pharmacie/internal/kafka"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/dejobratic/pharmacie/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderNumber int64) error {
	return e.publish(ctx, "EventBus.PublishOrderCreated", kafka.TopicOrderCreated, func(ctx context.Context) error {
		return e.bus.PublishOrderCreated(ctx, orderNumber)
	}, attribute.Int64("order.number", orderNumber))
}

func (e *ObservableEventBus) PublishOrderShipped(ctx context.Context, orderNumber int64) error {
	return e.publish(ctx, "EventBus.PublishOrderShipped", kafka.TopicOrderShipped, func(ctx context.Context) error {
		return e.bus.PublishOrderShipped(ctx, orderNumber)
	}, attribute.Int64("order.number", orderNumber))
}

func (e *ObservableEventBus) PublishReorderRequested(ctx context.Context, supplierID int64, medicationCount int) error {
	return e.publish(ctx, "EventBus.PublishReorderRequested", kafka.TopicReorderRequested, func(ctx context.Context) error {
		return e.bus.PublishReorderRequested(ctx, supplierID, medicationCount)
	},
		attribute.Int64("supplier.id", supplierID),
		attribute.Int("reorder.medication_count", medicationCount),
	)
}

func (e *ObservableEventBus) publish(
	ctx context.Context,
	spanName, topic string,
	fn func(ctx context.Context) error,
	attrs ...attribute.KeyValue,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("topic", topic))...)

	start := time.Now()
	err := fn(ctx)
	e.metrics.RecordPublish(ctx, topic, time.Since(start).Seconds(), err == nil)
	telemetry.SetSpanOutcome(span, err)
	return err
}
