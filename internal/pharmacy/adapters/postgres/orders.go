package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/dejobratic/pharmacie/internal/database"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.OrderRepository = (*OrderRepository)(nil)

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (dispensary_code, delivery_address, created_at)
		VALUES ($1, $2, $3)
		RETURNING number
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		order.DispensaryCode,
		order.DeliveryAddress,
		order.CreatedAt,
	).Scan(&order.Number)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("insert order: %w", err)
	}

	if order.Lines == nil {
		order.Lines = []domain.OrderLine{}
	}
	return nil
}

func (r *OrderRepository) GetByNumber(ctx context.Context, number int64) (*domain.Order, error) {
	return r.getByNumber(ctx, number, "")
}

// GetByNumberForUpdate locks the order row only. Lines are guarded by that lock since
// every line mutation goes through it first.
func (r *OrderRepository) GetByNumberForUpdate(ctx context.Context, number int64) (*domain.Order, error) {
	return r.getByNumber(ctx, number, " FOR UPDATE")
}

func (r *OrderRepository) getByNumber(ctx context.Context, number int64, lock string) (*domain.Order, error) {
	query := `
		SELECT number, dispensary_code, delivery_address, created_at, shipped_at
		FROM orders
		WHERE number = $1` + lock

	orders, err := r.query(ctx, query, number)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ports.ErrNotFound
	}
	return &orders[0], nil
}

func (r *OrderRepository) ListOpenByDispensary(ctx context.Context, dispensaryCode string) ([]domain.Order, error) {
	query := `
		SELECT number, dispensary_code, delivery_address, created_at, shipped_at
		FROM orders
		WHERE dispensary_code = $1 AND shipped_at IS NULL
		ORDER BY number
	`
	return r.query(ctx, query, dispensaryCode)
}

func (r *OrderRepository) MarkShipped(ctx context.Context, number int64, at time.Time) error {
	conn := database.Conn(ctx, r.pool)

	result, err := conn.Exec(ctx, `UPDATE orders SET shipped_at = $1 WHERE number = $2 AND shipped_at IS NULL`, at, number)
	if err != nil {
		return fmt.Errorf("update order shipped_at: %w", err)
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := conn.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE number = $1)`, number).Scan(&exists); err != nil {
		return fmt.Errorf("select order: %w", err)
	}
	if !exists {
		return ports.ErrNotFound
	}
	return fmt.Errorf("%w: order %d already shipped", domain.ErrInvalidState, number)
}

func (r *OrderRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	query := `
		INSERT INTO order_lines (order_number, medication_id, quantity)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, line.OrderNumber, line.MedicationID, line.Quantity).Scan(&line.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("insert order line: %w", err)
	}
	return nil
}

func (r *OrderRepository) GetLine(ctx context.Context, id int64) (*domain.OrderLine, error) {
	query := `SELECT id, order_number, medication_id, quantity FROM order_lines WHERE id = $1`

	var l domain.OrderLine
	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&l.ID, &l.OrderNumber, &l.MedicationID, &l.Quantity)
	if err != nil {
		if isNoRows(err) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select order line: %w", err)
	}
	return &l, nil
}

func (r *OrderRepository) DeleteLine(ctx context.Context, id int64) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM order_lines WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete order line: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Order, error) {
	conn := database.Conn(ctx, r.pool)

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Order, error) {
		var o domain.Order
		err := row.Scan(&o.Number, &o.DispensaryCode, &o.DeliveryAddress, &o.CreatedAt, &o.ShippedAt)
		o.Lines = []domain.OrderLine{}
		return o, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	numbers := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		numbers[i] = o.Number
		index[o.Number] = i
	}

	lineQuery := `
		SELECT id, order_number, medication_id, quantity
		FROM order_lines
		WHERE order_number = ANY($1)
		ORDER BY id
	`
	lineRows, err := conn.Query(ctx, lineQuery, numbers)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	lines, err := pgx.CollectRows(lineRows, pgx.RowToStructByPos[domain.OrderLine])
	if err != nil {
		return nil, fmt.Errorf("scan order line: %w", err)
	}
	for _, l := range lines {
		i := index[l.OrderNumber]
		orders[i].Lines = append(orders[i].Lines, l)
	}

	return orders, nil
}
