package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/dejobratic/pharmacie/internal/pharmacy/adapters/memory"
	"github.com/dejobratic/pharmacie/internal/pharmacy/app"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/metrics"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric/noop"
)

type recordingMailer struct {
	mu       sync.Mutex
	sent     []ports.Message
	failWith error
}

func (m *recordingMailer) Send(_ context.Context, msg ports.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []ports.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ports.Message(nil), m.sent...)
}

type recordingEventBus struct {
	mu       sync.Mutex
	created  []int64
	shipped  []int64
	reorders map[int64]int
}

func (b *recordingEventBus) PublishOrderCreated(_ context.Context, orderNumber int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created = append(b.created, orderNumber)
	return nil
}

func (b *recordingEventBus) PublishOrderShipped(_ context.Context, orderNumber int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shipped = append(b.shipped, orderNumber)
	return nil
}

func (b *recordingEventBus) PublishReorderRequested(_ context.Context, supplierID int64, medicationCount int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reorders == nil {
		b.reorders = make(map[int64]int)
	}
	b.reorders[supplierID] = medicationCount
	return nil
}

type fixture struct {
	store         *memory.Store
	suppliers     *memory.SupplierRepository
	categories    *memory.CategoryRepository
	medications   *memory.MedicationRepository
	orders        *memory.OrderRepository
	mailer        *recordingMailer
	events        *recordingEventBus
	supplierSvc   *app.SupplierService
	catalogSvc    *app.CatalogService
	orderSvc      *app.OrderService
	notifications *app.NotificationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := metrics.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}

	store := memory.NewStore()
	store.SeedDispensaries(domain.Dispensary{Code: "DSP01", Name: "Dispensaire Nord", Address: "12 rue des Lilas"})

	f := &fixture{
		store:       store,
		suppliers:   memory.NewSupplierRepository(store),
		categories:  memory.NewCategoryRepository(store),
		medications: memory.NewMedicationRepository(store),
		orders:      memory.NewOrderRepository(store),
		mailer:      &recordingMailer{},
		events:      &recordingEventBus{},
	}
	tx := memory.NewTxManager(store)

	f.notifications = app.NewNotificationService(f.medications, f.categories, f.suppliers, f.mailer, f.events, m, logger)
	f.supplierSvc = app.NewSupplierService(f.suppliers, f.categories, tx, logger)
	f.catalogSvc = app.NewCatalogService(f.categories, f.medications, tx, f.notifications, logger)
	f.orderSvc = app.NewOrderService(
		f.orders, f.medications, memory.NewDispensaryRepository(store),
		f.events, nil, tx, f.notifications, logger, m,
	)
	return f
}

func (f *fixture) category(t *testing.T, label string) domain.Category {
	t.Helper()
	c, err := f.catalogSvc.CreateCategory(context.Background(), label, "")
	if err != nil {
		t.Fatalf("CreateCategory(%q) failed: %v", label, err)
	}
	return *c
}

func (f *fixture) medication(t *testing.T, name string, category int64, stock, threshold int) domain.Medication {
	t.Helper()
	m, err := f.catalogSvc.CreateMedication(context.Background(), app.CreateMedicationInput{
		Name:             name,
		CategoryCode:     category,
		UnitPrice:        decimal.RequireFromString("2.5"),
		UnitsInStock:     stock,
		ReorderThreshold: threshold,
	})
	if err != nil {
		t.Fatalf("CreateMedication(%q) failed: %v", name, err)
	}
	return *m
}

func (f *fixture) supplier(t *testing.T, name string, categories ...int64) domain.Supplier {
	t.Helper()
	ctx := context.Background()
	s, err := f.supplierSvc.Create(ctx, name, name+"@fournisseur.test")
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	for _, code := range categories {
		linked, err := f.supplierSvc.AddCategory(ctx, s.ID, code)
		if err != nil {
			t.Fatalf("AddCategory(%d, %d) failed: %v", s.ID, code, err)
		}
		s = linked
	}
	return *s
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("expected error %v, got %v", target, err)
	}
}
