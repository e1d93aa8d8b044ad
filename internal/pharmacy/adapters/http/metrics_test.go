package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Failed to collect metrics: %v", err)
	}
	found := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestRecordHTTPRequest(t *testing.T) {
	t.Run("records request count and duration with method, route, and status labels", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		ctx := context.Background()

		metrics.RecordRequest(ctx, "GET", "GET /api/fournisseurs/{id}", 200, 0.5)
		metrics.RecordRequest(ctx, "POST", "POST /api/commandes", 201, 0.7)

		found := collect(t, reader)

		sum, ok := found["http_requests_total"].Data.(metricdata.Sum[int64])
		if !ok {
			t.Fatal("Expected Sum[int64] data type")
		}
		if len(sum.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(sum.DataPoints))
		}
		histogram, ok := found["http_request_duration_seconds"].Data.(metricdata.Histogram[float64])
		if !ok {
			t.Fatal("Expected Histogram[float64] data type")
		}
		if len(histogram.DataPoints) != 2 {
			t.Errorf("Expected 2 data points, got %d", len(histogram.DataPoints))
		}
	})
}

func TestMiddlewareStack(t *testing.T) {
	t.Run("labels requests with the matched route", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		mux := http.NewServeMux()
		mux.HandleFunc("GET /api/medicaments/{id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		handler := Wrap(mux, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/medicaments/42", nil))

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		sum := collect(t, reader)["http_requests_total"].Data.(metricdata.Sum[int64])
		if len(sum.DataPoints) != 1 {
			t.Fatalf("expected 1 data point, got %d", len(sum.DataPoints))
		}
		got, _ := sum.DataPoints[0].Attributes.Value(attribute.Key("route"))
		if got.AsString() != "GET /api/medicaments/{id}" {
			t.Errorf("expected route pattern, got %q", got.AsString())
		}
	})

	t.Run("recovers panics as 500", func(t *testing.T) {
		metrics, reader := newTestMetrics(t)
		mux := http.NewServeMux()
		mux.HandleFunc("GET /boom", func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
		handler := Wrap(mux, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if _, ok := collect(t, reader)["http_panics_recovered_total"]; !ok {
			t.Error("expected panic counter")
		}
	})
}
