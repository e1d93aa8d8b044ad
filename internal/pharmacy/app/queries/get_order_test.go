package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/adapters/memory"
	"github.com/dejobratic/pharmacie/internal/pharmacy/app/queries"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

func setupRepository(t *testing.T) *memory.OrderRepository {
	t.Helper()
	store := memory.NewStore()
	store.SeedDispensaries(domain.Dispensary{Code: "DSP01", Name: "Dispensaire Nord", Address: "12 rue des Lilas"})
	return memory.NewOrderRepository(store)
}

func TestGetOrder(t *testing.T) {
	t.Run("returns existing order", func(t *testing.T) {
		repo := setupRepository(t)
		order := domain.NewOrder(domain.Dispensary{Code: "DSP01", Address: "12 rue des Lilas"}, time.Now().UTC())
		if err := repo.Create(context.Background(), &order); err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}
		handler := queries.NewGetOrderQueryHandler(repo)

		got, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderNumber: order.Number})

		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if got.Number != order.Number {
			t.Errorf("expected order %d, got %d", order.Number, got.Number)
		}
		if got.DispensaryCode != "DSP01" {
			t.Errorf("expected dispensary DSP01, got %s", got.DispensaryCode)
		}
	})

	t.Run("returns not found for missing order", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(setupRepository(t))

		order, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderNumber: 42})

		if !errors.Is(err, ports.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if order != nil {
			t.Errorf("expected nil order, got %+v", order)
		}
	})

	t.Run("rejects non-positive order number", func(t *testing.T) {
		handler := queries.NewGetOrderQueryHandler(setupRepository(t))

		_, err := handler.Handle(context.Background(), queries.GetOrderQuery{OrderNumber: 0})

		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}
