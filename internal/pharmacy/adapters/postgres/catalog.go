package postgres

import (
	"context"
	"fmt"

	"github.com/dejobratic/pharmacie/internal/database"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	_ ports.CategoryRepository   = (*CategoryRepository)(nil)
	_ ports.MedicationRepository = (*MedicationRepository)(nil)
	_ ports.DispensaryRepository = (*DispensaryRepository)(nil)
)

type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, `SELECT code, label, description FROM categories ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	categories, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Category, error) {
		return scanCategory(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return categories, nil
}

func (r *CategoryRepository) GetByCode(ctx context.Context, code int64) (*domain.Category, error) {
	row := database.Conn(ctx, r.pool).QueryRow(ctx, `SELECT code, label, description FROM categories WHERE code = $1`, code)
	category, err := scanCategory(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (label, description)
		VALUES ($1, $2)
		RETURNING code
	`
	if err := database.Conn(ctx, r.pool).QueryRow(ctx, query, category.Label, category.Description).Scan(&category.Code); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	query := `
		UPDATE categories
		SET label = $1, description = $2
		WHERE code = $3
	`
	result, err := database.Conn(ctx, r.pool).Exec(ctx, query, category.Label, category.Description, category.Code)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// Delete relies on the cascade of supplier_categories to drop the links.
func (r *CategoryRepository) Delete(ctx context.Context, code int64) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM categories WHERE code = $1`, code)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: category %d still has medications", domain.ErrConflict, code)
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (domain.Category, error) {
	var c domain.Category
	err := row.Scan(&c.Code, &c.Label, &c.Description)
	return c, err
}

type MedicationRepository struct {
	pool *pgxpool.Pool
}

func NewMedicationRepository(pool *pgxpool.Pool) *MedicationRepository {
	return &MedicationRepository{pool: pool}
}

const medicationColumns = `id, name, category_code, quantity_per_unit, unit_price::text,
	units_in_stock, units_on_order, reorder_threshold, unavailable`

func (r *MedicationRepository) List(ctx context.Context) ([]domain.Medication, error) {
	return r.query(ctx, `SELECT `+medicationColumns+` FROM medications ORDER BY id`)
}

func (r *MedicationRepository) GetByID(ctx context.Context, id int64) (*domain.Medication, error) {
	return r.getByID(ctx, id, "")
}

func (r *MedicationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Medication, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *MedicationRepository) getByID(ctx context.Context, id int64, lock string) (*domain.Medication, error) {
	row := database.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`+lock, id)
	medication, err := scanMedication(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select medication: %w", err)
	}
	return &medication, nil
}

func (r *MedicationRepository) ListByCategory(ctx context.Context, code int64) ([]domain.Medication, error) {
	return r.query(ctx, `SELECT `+medicationColumns+` FROM medications WHERE category_code = $1 ORDER BY id`, code)
}

func (r *MedicationRepository) Create(ctx context.Context, medication *domain.Medication) error {
	query := `
		INSERT INTO medications (name, category_code, quantity_per_unit, unit_price,
			units_in_stock, units_on_order, reorder_threshold, unavailable)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)
		RETURNING id
	`

	err := database.Conn(ctx, r.pool).QueryRow(ctx, query,
		medication.Name,
		medication.CategoryCode,
		medication.QuantityPerUnit,
		medication.UnitPrice.String(),
		medication.UnitsInStock,
		medication.UnitsOnOrder,
		medication.ReorderThreshold,
		medication.Unavailable,
	).Scan(&medication.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

func (r *MedicationRepository) Update(ctx context.Context, medication domain.Medication) error {
	query := `
		UPDATE medications
		SET name = $1, category_code = $2, quantity_per_unit = $3, unit_price = $4::numeric,
			units_in_stock = $5, units_on_order = $6, reorder_threshold = $7, unavailable = $8
		WHERE id = $9
	`

	result, err := database.Conn(ctx, r.pool).Exec(ctx, query,
		medication.Name,
		medication.CategoryCode,
		medication.QuantityPerUnit,
		medication.UnitPrice.String(),
		medication.UnitsInStock,
		medication.UnitsOnOrder,
		medication.ReorderThreshold,
		medication.Unavailable,
		medication.ID,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("update medication: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *MedicationRepository) Delete(ctx context.Context, id int64) error {
	result, err := database.Conn(ctx, r.pool).Exec(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: medication %d is referenced by an order", domain.ErrConflict, id)
		}
		return fmt.Errorf("delete medication: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *MedicationRepository) query(ctx context.Context, sql string, args ...any) ([]domain.Medication, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query medications: %w", err)
	}
	medications, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Medication, error) {
		return scanMedication(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan medication: %w", err)
	}
	return medications, nil
}

func scanMedication(row pgx.Row) (domain.Medication, error) {
	var (
		m     domain.Medication
		price string
	)
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.CategoryCode,
		&m.QuantityPerUnit,
		&price,
		&m.UnitsInStock,
		&m.UnitsOnOrder,
		&m.ReorderThreshold,
		&m.Unavailable,
	); err != nil {
		return domain.Medication{}, err
	}

	unitPrice, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Medication{}, fmt.Errorf("parse unit price %q: %w", price, err)
	}
	m.UnitPrice = unitPrice
	return m, nil
}

type DispensaryRepository struct {
	pool *pgxpool.Pool
}

func NewDispensaryRepository(pool *pgxpool.Pool) *DispensaryRepository {
	return &DispensaryRepository{pool: pool}
}

func (r *DispensaryRepository) List(ctx context.Context) ([]domain.Dispensary, error) {
	rows, err := database.Conn(ctx, r.pool).Query(ctx, `SELECT code, name, address FROM dispensaries ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query dispensaries: %w", err)
	}
	dispensaries, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Dispensary])
	if err != nil {
		return nil, fmt.Errorf("scan dispensary: %w", err)
	}
	return dispensaries, nil
}

func (r *DispensaryRepository) GetByCode(ctx context.Context, code string) (*domain.Dispensary, error) {
	var d domain.Dispensary
	err := database.Conn(ctx, r.pool).QueryRow(ctx, `SELECT code, name, address FROM dispensaries WHERE code = $1`, code).
		Scan(&d.Code, &d.Name, &d.Address)
	if err != nil {
		if isNoRows(err) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select dispensary: %w", err)
	}
	return &d, nil
}
