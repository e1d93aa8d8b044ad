package metrics

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func setupMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestInitializeMetrics(t *testing.T) {
	t.Run("initializes all metric instruments successfully", func(t *testing.T) {
		metrics, _ := setupMetrics(t)

		if metrics.ordersCreatedTotal == nil {
			t.Error("ordersCreatedTotal is nil")
		}
		if metrics.orderCreationDuration == nil {
			t.Error("orderCreationDuration is nil")
		}
		if metrics.ordersShippedTotal == nil {
			t.Error("ordersShippedTotal is nil")
		}
		if metrics.reorderSweepsTotal == nil {
			t.Error("reorderSweepsTotal is nil")
		}
		if metrics.medicationsFlagged == nil {
			t.Error("medicationsFlagged is nil")
		}
		if metrics.reorderEmailsTotal == nil {
			t.Error("reorderEmailsTotal is nil")
		}
	})
}

func TestRecordOrderCreated(t *testing.T) {
	t.Run("records orders created with status label", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreated(ctx, true)
		metrics.RecordOrderCreated(ctx, false)

		m, found := collect(t, reader, "orders_created_total")
		if !found {
			t.Fatal("orders_created_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}
	})
}

func TestRecordOrderCreationDuration(t *testing.T) {
	t.Run("records order creation duration", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordOrderCreationDuration(ctx, 1.5)
		metrics.RecordOrderCreationDuration(ctx, 2.3)

		m, found := collect(t, reader, "order_creation_duration_seconds")
		if !found {
			t.Fatal("order_creation_duration_seconds metric not found")
		}
		histogram, ok := m.Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if histogram.DataPoints[0].Count != 2 {
			t.Errorf("Expected count=2, got %d", histogram.DataPoints[0].Count)
		}
	})
}

func TestRecordReorderSweep(t *testing.T) {
	t.Run("records sweeps and flagged medications", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordReorderSweep(ctx, 2)
		metrics.RecordReorderSweep(ctx, 0)

		m, found := collect(t, reader, "reorder_medications_flagged")
		if !found {
			t.Fatal("reorder_medications_flagged metric not found")
		}
		histogram, ok := m.Data.(metricdata.Histogram[int64])
		if !ok {
			t.Fatal("Expected Histogram[int64] data type")
		}
		if histogram.DataPoints[0].Count != 2 {
			t.Errorf("Expected count=2, got %d", histogram.DataPoints[0].Count)
		}
		if histogram.DataPoints[0].Sum != 2 {
			t.Errorf("Expected sum=2, got %d", histogram.DataPoints[0].Sum)
		}
	})
}

func TestRecordReorderEmail(t *testing.T) {
	t.Run("records emails by delivery status", func(t *testing.T) {
		metrics, reader := setupMetrics(t)
		ctx := context.Background()

		metrics.RecordReorderEmail(ctx, true)
		metrics.RecordReorderEmail(ctx, true)
		metrics.RecordReorderEmail(ctx, false)

		m, found := collect(t, reader, "reorder_emails_total")
		if !found {
			t.Fatal("reorder_emails_total metric not found")
		}
		sum, ok := m.Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}
	})
}
