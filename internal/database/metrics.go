package database

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics instruments repository calls against PostgreSQL.
type Metrics struct {
	queryDuration metric.Float64Histogram
	queryErrors   metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	queryDuration, err := meter.Float64Histogram(
		"db_query_duration_seconds",
		metric.WithDescription("Repository call duration by operation and outcome"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_duration histogram: %w", err)
	}

	queryErrors, err := meter.Int64Counter(
		"db_query_errors_total",
		metric.WithDescription("Repository calls that returned an error"),
	)
	if err != nil {
		return nil, fmt.Errorf("create db_query_errors counter: %w", err)
	}

	return &Metrics{queryDuration: queryDuration, queryErrors: queryErrors}, nil
}

// RecordQuery records one repository call. Lookups that find nothing still count as
// errors here; callers decide whether that is a failure.
func (m *Metrics) RecordQuery(ctx context.Context, operation string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		m.queryErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", operation)))
	}
	m.queryDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
}
