package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	ordersShippedTotal    metric.Int64Counter
	reorderSweepsTotal    metric.Int64Counter
	medicationsFlagged    metric.Int64Histogram
	reorderEmailsTotal    metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.ordersShippedTotal, err = meter.Int64Counter(
		"orders_shipped_total",
		metric.WithDescription("Total number of orders shipped"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_shipped_total counter: %w", err)
	}

	m.reorderSweepsTotal, err = meter.Int64Counter(
		"reorder_sweeps_total",
		metric.WithDescription("Total number of reorder sweeps run"),
		metric.WithUnit("{sweep}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reorder_sweeps_total counter: %w", err)
	}

	m.medicationsFlagged, err = meter.Int64Histogram(
		"reorder_medications_flagged",
		metric.WithDescription("Medications below their reorder threshold per sweep"),
		metric.WithUnit("{medication}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reorder_medications_flagged histogram: %w", err)
	}

	m.reorderEmailsTotal, err = meter.Int64Counter(
		"reorder_emails_total",
		metric.WithDescription("Reorder emails handed to the mail transport"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create reorder_emails_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordOrderShipped(ctx context.Context) {
	m.ordersShippedTotal.Add(ctx, 1)
}

// RecordReorderSweep counts a sweep and the number of medications it flagged.
func (m *Metrics) RecordReorderSweep(ctx context.Context, flagged int) {
	m.reorderSweepsTotal.Add(ctx, 1)
	m.medicationsFlagged.Record(ctx, int64(flagged))
}

func (m *Metrics) RecordReorderEmail(ctx context.Context, success bool) {
	m.reorderEmailsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", statusLabel(success)),
	))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
