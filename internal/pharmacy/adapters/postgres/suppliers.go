package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/pharmacie/internal/database"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ ports.SupplierRepository = (*SupplierRepository)(nil)

type SupplierRepository struct {
	pool *pgxpool.Pool
}

func NewSupplierRepository(pool *pgxpool.Pool) *SupplierRepository {
	return &SupplierRepository{pool: pool}
}

func (r *SupplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	return r.query(ctx, `SELECT id, name, email FROM suppliers ORDER BY id`)
}

func (r *SupplierRepository) GetByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	suppliers, err := r.query(ctx, `SELECT id, name, email FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(suppliers) == 0 {
		return nil, ports.ErrNotFound
	}
	return &suppliers[0], nil
}

func (r *SupplierRepository) SearchByName(ctx context.Context, text string) ([]domain.Supplier, error) {
	query := `
		SELECT id, name, email
		FROM suppliers
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY id
	`
	return r.query(ctx, query, escapeLike(text))
}

func (r *SupplierRepository) ListByCategory(ctx context.Context, code int64) ([]domain.Supplier, error) {
	query := `
		SELECT s.id, s.name, s.email
		FROM suppliers s
		JOIN supplier_categories sc ON sc.supplier_id = s.id
		WHERE sc.category_code = $1
		ORDER BY s.id
	`
	return r.query(ctx, query, code)
}

func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (name, email)
		VALUES ($1, $2)
		RETURNING id
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query, supplier.Name, supplier.Email).Scan(&supplier.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: supplier name %q already exists", domain.ErrConflict, supplier.Name)
		}
		return fmt.Errorf("insert supplier: %w", err)
	}

	supplier.Categories = []domain.CategoryRef{}
	return nil
}

func (r *SupplierRepository) Update(ctx context.Context, supplier domain.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $1, email = $2
		WHERE id = $3
	`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, supplier.Name, supplier.Email, supplier.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("%w: supplier name %q already exists", domain.ErrConflict, supplier.Name)
		}
		return fmt.Errorf("update supplier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SupplierRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM suppliers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *SupplierRepository) LinkCategory(ctx context.Context, supplierID, categoryCode int64) error {
	query := `
		INSERT INTO supplier_categories (supplier_id, category_code)
		VALUES ($1, $2)
	`

	if _, err := database.Conn(ctx, r.pool).Exec(ctx, query, supplierID, categoryCode); err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return fmt.Errorf("%w: supplier %d already linked to category %d", domain.ErrConflict, supplierID, categoryCode)
		case database.IsForeignKeyViolation(err):
			return ports.ErrNotFound
		}
		return fmt.Errorf("insert supplier category: %w", err)
	}
	return nil
}

func (r *SupplierRepository) UnlinkCategory(ctx context.Context, supplierID, categoryCode int64) error {
	query := `DELETE FROM supplier_categories WHERE supplier_id = $1 AND category_code = $2`
	if _, err := database.Conn(ctx, r.pool).Exec(ctx, query, supplierID, categoryCode); err != nil {
		return fmt.Errorf("delete supplier category: %w", err)
	}
	return nil
}

func (r *SupplierRepository) UnlinkAllCategories(ctx context.Context, supplierID int64) error {
	query := `DELETE FROM supplier_categories WHERE supplier_id = $1`
	if _, err := database.Conn(ctx, r.pool).Exec(ctx, query, supplierID); err != nil {
		return fmt.Errorf("delete supplier categories: %w", err)
	}
	return nil
}

// query loads suppliers and resolves their categories with a second round trip.
func (r *SupplierRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Supplier, error) {
	conn := database.Conn(ctx, r.pool)

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query suppliers: %w", err)
	}
	suppliers, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Supplier, error) {
		var s domain.Supplier
		err := row.Scan(&s.ID, &s.Name, &s.Email)
		s.Categories = []domain.CategoryRef{}
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan supplier: %w", err)
	}
	if len(suppliers) == 0 {
		return suppliers, nil
	}

	ids := make([]int64, len(suppliers))
	index := make(map[int64]int, len(suppliers))
	for i, s := range suppliers {
		ids[i] = s.ID
		index[s.ID] = i
	}

	linkQuery := `
		SELECT sc.supplier_id, c.code, c.label
		FROM supplier_categories sc
		JOIN categories c ON c.code = sc.category_code
		WHERE sc.supplier_id = ANY($1)
		ORDER BY c.code
	`
	links, err := conn.Query(ctx, linkQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("query supplier categories: %w", err)
	}
	defer links.Close()

	for links.Next() {
		var (
			supplierID int64
			ref        domain.CategoryRef
		)
		if err := links.Scan(&supplierID, &ref.Code, &ref.Label); err != nil {
			return nil, fmt.Errorf("scan supplier category: %w", err)
		}
		i := index[supplierID]
		suppliers[i].Categories = append(suppliers[i].Categories, ref)
	}
	if err := links.Err(); err != nil {
		return nil, fmt.Errorf("iterate supplier categories: %w", err)
	}

	return suppliers, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
