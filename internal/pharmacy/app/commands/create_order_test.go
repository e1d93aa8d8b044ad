package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/app/commands"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

type mockRepository struct {
	createFn func(ctx context.Context, order *domain.Order) error
}

func (m *mockRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.createFn != nil {
		return m.createFn(ctx, order)
	}
	order.Number = 1
	return nil
}

func (m *mockRepository) GetByNumber(ctx context.Context, number int64) (*domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) GetByNumberForUpdate(ctx context.Context, number int64) (*domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) ListOpenByDispensary(ctx context.Context, dispensaryCode string) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) MarkShipped(ctx context.Context, number int64, at time.Time) error {
	return nil
}

func (m *mockRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	return nil
}

func (m *mockRepository) GetLine(ctx context.Context, id int64) (*domain.OrderLine, error) {
	return nil, nil
}

func (m *mockRepository) DeleteLine(ctx context.Context, id int64) error {
	return nil
}

type mockDispensaries struct {
	dispensaries map[string]domain.Dispensary
}

func (m *mockDispensaries) List(ctx context.Context) ([]domain.Dispensary, error) {
	return nil, nil
}

func (m *mockDispensaries) GetByCode(ctx context.Context, code string) (*domain.Dispensary, error) {
	d, ok := m.dispensaries[code]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &d, nil
}

type mockEventBus struct {
	publishOrderCreatedFn func(ctx context.Context, orderNumber int64) error
}

func (m *mockEventBus) PublishOrderCreated(ctx context.Context, orderNumber int64) error {
	if m.publishOrderCreatedFn != nil {
		return m.publishOrderCreatedFn(ctx, orderNumber)
	}
	return nil
}

func (m *mockEventBus) PublishOrderShipped(ctx context.Context, orderNumber int64) error {
	return nil
}

func (m *mockEventBus) PublishReorderRequested(ctx context.Context, supplierID int64, medicationCount int) error {
	return nil
}

func newDispensaries() *mockDispensaries {
	return &mockDispensaries{dispensaries: map[string]domain.Dispensary{
		"DSP01": {Code: "DSP01", Name: "Dispensaire Nord", Address: "12 rue des Lilas"},
	}}
}

func TestCreateOrder(t *testing.T) {
	t.Run("creates open order for known dispensary", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(&mockRepository{}, newDispensaries(), &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{DispensaryCode: "DSP01"})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if order == nil {
			t.Fatal("expected order to be returned, got nil")
		}
		if order.DeliveryAddress != "12 rue des Lilas" {
			t.Errorf("expected address to be copied, got %q", order.DeliveryAddress)
		}
		if order.Status() != domain.StatusOpen {
			t.Errorf("expected status %s, got %s", domain.StatusOpen, order.Status())
		}
		if order.Number == 0 {
			t.Error("expected order number to be assigned")
		}
	})

	t.Run("returns validation error when dispensary code is blank", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(&mockRepository{}, newDispensaries(), &mockEventBus{})

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{DispensaryCode: "  "})

		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("returns not found for unknown dispensary", func(t *testing.T) {
		handler := commands.NewCreateOrderCommandHandler(&mockRepository{}, newDispensaries(), &mockEventBus{})

		_, err := handler.Handle(context.Background(), commands.CreateOrderCommand{DispensaryCode: "NOPE"})

		if !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("returns error when repository fails", func(t *testing.T) {
		repoErr := errors.New("database connection failed")
		repo := &mockRepository{
			createFn: func(ctx context.Context, order *domain.Order) error {
				return repoErr
			},
		}
		published := false
		events := &mockEventBus{
			publishOrderCreatedFn: func(ctx context.Context, orderNumber int64) error {
				published = true
				return nil
			},
		}
		handler := commands.NewCreateOrderCommandHandler(repo, newDispensaries(), events)

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{DispensaryCode: "DSP01"})

		if !errors.Is(err, repoErr) {
			t.Fatalf("expected repository error, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
		if published {
			t.Error("expected no event to be published")
		}
	})

	t.Run("returns order and error when publishing fails", func(t *testing.T) {
		events := &mockEventBus{
			publishOrderCreatedFn: func(ctx context.Context, orderNumber int64) error {
				return errors.New("broker unavailable")
			},
		}
		handler := commands.NewCreateOrderCommandHandler(&mockRepository{}, newDispensaries(), events)

		order, err := handler.Handle(context.Background(), commands.CreateOrderCommand{DispensaryCode: "DSP01"})

		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if order == nil {
			t.Fatal("expected order to be returned despite publish failure")
		}
	})
}
