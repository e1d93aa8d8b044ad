package queries

import (
	"context"
	"fmt"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

// GetOrderQuery represents a request to retrieve an order by its number.
type GetOrderQuery struct {
	OrderNumber int64
}

// GetOrderQueryHandler executes GetOrderQuery and returns the order with its lines.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle executes the query and retrieves the order.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByNumber(ctx, query.OrderNumber)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", query.OrderNumber, err)
	}

	return order, nil
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if q.OrderNumber <= 0 {
		return fmt.Errorf("%w: order number must be positive", domain.ErrInvalidInput)
	}
	return nil
}
