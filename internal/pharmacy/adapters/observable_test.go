package adapters_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dejobratic/pharmacie/internal/database"
	"github.com/dejobratic/pharmacie/internal/kafka"
	"github.com/dejobratic/pharmacie/internal/pharmacy/adapters"
	"github.com/dejobratic/pharmacie/internal/pharmacy/adapters/memory"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracing(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
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

func TestObservableOrderRepository(t *testing.T) {
	recorder := setupTracing(t)
	reader := sdkmetric.NewManualReader()
	dbMetrics, err := database.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	store := memory.NewStore()
	store.SeedDispensaries(domain.Dispensary{Code: "DSP01", Name: "Nord", Address: "Lille"})
	repo := adapters.NewObservableOrderRepository(memory.NewOrderRepository(store), dbMetrics)
	ctx := context.Background()

	order := domain.Order{DispensaryCode: "DSP01"}
	if err := repo.Create(ctx, &order); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	_, err = repo.GetByNumber(ctx, 999)

	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound to pass through, got %v", err)
	}
	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "OrderRepository.Create" || spans[0].Status().Code != codes.Ok {
		t.Errorf("unexpected create span %s %v", spans[0].Name(), spans[0].Status())
	}
	if spans[1].Status().Code != codes.Error {
		t.Errorf("expected error status on lookup span, got %v", spans[1].Status())
	}
	m, ok := collectMetric(t, reader, "db_query_duration_seconds")
	if !ok {
		t.Fatal("db_query_duration_seconds metric not found")
	}
	if points := m.Data.(metricdata.Histogram[float64]).DataPoints; len(points) != 2 {
		t.Errorf("expected one data point per operation, got %d", len(points))
	}
}

func TestObservableMedicationRepository(t *testing.T) {
	recorder := setupTracing(t)
	dbMetrics, _ := database.NewMetrics(sdkmetric.NewMeterProvider().Meter("test"))
	store := memory.NewStore()
	categories := memory.NewCategoryRepository(store)
	repo := adapters.NewObservableMedicationRepository(memory.NewMedicationRepository(store), dbMetrics)
	ctx := context.Background()

	category := domain.Category{Label: "Antalgiques"}
	if err := categories.Create(ctx, &category); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	medication := domain.Medication{Name: "Paracétamol", CategoryCode: category.Code}
	if err := repo.Create(ctx, &medication); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	listed, err := repo.ListByCategory(ctx, category.Code)

	if err != nil || len(listed) != 1 {
		t.Fatalf("expected 1 medication, got %d (%v)", len(listed), err)
	}
	if got := len(recorder.Ended()); got != 2 {
		t.Errorf("expected 2 spans, got %d", got)
	}
}

type failingBus struct{ err error }

func (b failingBus) PublishOrderCreated(context.Context, int64) error { return b.err }
func (b failingBus) PublishOrderShipped(context.Context, int64) error { return b.err }
func (b failingBus) PublishReorderRequested(context.Context, int64, int) error { return b.err }

func TestObservableEventBus(t *testing.T) {
	t.Run("records publish outcome per topic", func(t *testing.T) {
		recorder := setupTracing(t)
		reader := sdkmetric.NewManualReader()
		eventMetrics, err := kafka.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
		if err != nil {
			t.Fatalf("NewMetrics() failed: %v", err)
		}
		ok := adapters.NewObservableEventBus(kafka.NewNoopEventBus(slog.New(slog.NewTextHandler(io.Discard, nil))), eventMetrics)
		broken := adapters.NewObservableEventBus(failingBus{err: errors.New("broker down")}, eventMetrics)
		ctx := context.Background()

		if err := ok.PublishOrderShipped(ctx, 4); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := broken.PublishReorderRequested(ctx, 2, 3); err == nil {
			t.Fatal("expected error to pass through")
		}

		spans := recorder.Ended()
		if len(spans) != 2 || spans[1].Status().Code != codes.Error {
			t.Fatalf("unexpected spans %+v", spans)
		}
		m, found := collectMetric(t, reader, "events_published_total")
		if !found {
			t.Fatal("events_published_total metric not found")
		}
		if points := m.Data.(metricdata.Sum[int64]).DataPoints; len(points) != 2 {
			t.Errorf("expected success and error data points, got %d", len(points))
		}
	})
}

type stubMailer struct{ err error }

func (m stubMailer) Send(context.Context, ports.Message) error { return m.err }

func TestObservableMailer(t *testing.T) {
	recorder := setupTracing(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	msg := ports.Message{To: "ventes@pharmadis.test", Subject: "Réappro", HTML: "<p>x</p>"}

	if err := adapters.NewObservableMailer(stubMailer{}, logger).Send(context.Background(), msg); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	failure := errors.New("rejected")
	if err := adapters.NewObservableMailer(stubMailer{err: failure}, logger).Send(context.Background(), msg); !errors.Is(err, failure) {
		t.Fatalf("expected failure to pass through, got %v", err)
	}

	spans := recorder.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	if spans[0].Name() != "Mailer.Send" || spans[0].Status().Code != codes.Ok || spans[1].Status().Code != codes.Error {
		t.Errorf("unexpected span statuses %v / %v", spans[0].Status(), spans[1].Status())
	}
}
