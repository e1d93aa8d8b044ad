package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

type CreateOrderCommand struct {
	DispensaryCode string
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.DispensaryCode) == "" {
		return fmt.Errorf("%w: dispensary code is required", domain.ErrInvalidInput)
	}
	return nil
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

type CreateOrderCommandHandler struct {
	repo         ports.OrderRepository
	dispensaries ports.DispensaryRepository
	events       ports.EventBus
	now          func() time.Time
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	dispensaries ports.DispensaryRepository,
	events ports.EventBus,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:         repo,
		dispensaries: dispensaries,
		events:       events,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	dispensary, err := h.dispensaries.GetByCode(ctx, cmd.DispensaryCode)
	if err != nil {
		return nil, fmt.Errorf("dispensary %s: %w", cmd.DispensaryCode, err)
	}

	order := domain.NewOrder(*dispensary, h.now())

	if err := h.repo.Create(ctx, &order); err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderCreated(ctx, order.Number); err != nil {
		return &order, fmt.Errorf("order saved but failed to publish event: %w", err)
	}

	return &order, nil
}
