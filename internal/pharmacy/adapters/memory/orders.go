package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

// OrderRepository keeps orders and their lines in memory.
type OrderRepository struct {
	store *Store
}

// NewOrderRepository constructs an OrderRepository over the store.
func NewOrderRepository(store *Store) *OrderRepository {
	return &OrderRepository{store: store}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.dispensaries[order.DispensaryCode]; !ok {
		return ports.ErrNotFound
	}
	order.Number = r.store.nextOrderNumber
	r.store.nextOrderNumber++
	stored := *order
	stored.Lines = nil
	r.store.orders[order.Number] = stored
	if order.Lines == nil {
		order.Lines = []domain.OrderLine{}
	}
	return nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number int64) (*domain.Order, error) {
	defer r.store.rlock(ctx)()
	o, ok := r.store.orders[number]
	if !ok {
		return nil, ports.ErrNotFound
	}
	resolved := r.resolve(o)
	return &resolved, nil
}

func (r *OrderRepository) GetByNumberForUpdate(ctx context.Context, number int64) (*domain.Order, error) {
	return r.GetByNumber(ctx, number)
}

// ListOpenByDispensary returns unshipped orders ordered by number.
func (r *OrderRepository) ListOpenByDispensary(ctx context.Context, dispensaryCode string) ([]domain.Order, error) {
	defer r.store.rlock(ctx)()
	result := make([]domain.Order, 0)
	for _, o := range r.store.orders {
		if o.DispensaryCode == dispensaryCode && o.ShippedAt == nil {
			result = append(result, r.resolve(o))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Number < result[j].Number })
	return result, nil
}

func (r *OrderRepository) MarkShipped(ctx context.Context, number int64, at time.Time) error {
	defer r.store.wlock(ctx)()
	o, ok := r.store.orders[number]
	if !ok {
		return ports.ErrNotFound
	}
	if o.ShippedAt != nil {
		return fmt.Errorf("%w: order %d already shipped", domain.ErrInvalidState, number)
	}
	shipped := at
	o.ShippedAt = &shipped
	r.store.orders[number] = o
	return nil
}

func (r *OrderRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.orders[line.OrderNumber]; !ok {
		return ports.ErrNotFound
	}
	if _, ok := r.store.medications[line.MedicationID]; !ok {
		return ports.ErrNotFound
	}
	line.ID = r.store.nextLineID
	r.store.nextLineID++
	r.store.lines[line.ID] = *line
	return nil
}

func (r *OrderRepository) GetLine(ctx context.Context, id int64) (*domain.OrderLine, error) {
	defer r.store.rlock(ctx)()
	l, ok := r.store.lines[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &l, nil
}

func (r *OrderRepository) DeleteLine(ctx context.Context, id int64) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.lines[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.store.lines, id)
	return nil
}

func (r *OrderRepository) resolve(o domain.Order) domain.Order {
	lines := make([]domain.OrderLine, 0)
	for _, l := range r.store.lines {
		if l.OrderNumber == o.Number {
			lines = append(lines, l)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	o.Lines = lines
	if o.ShippedAt != nil {
		shipped := *o.ShippedAt
		o.ShippedAt = &shipped
	}
	return o
}
