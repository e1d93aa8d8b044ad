package ports

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// SupplierRepository persists suppliers and their category links. Suppliers are returned
// with their categories resolved, ordered by category code.
type SupplierRepository interface {
	List(ctx context.Context) ([]domain.Supplier, error)
	GetByID(ctx context.Context, id int64) (*domain.Supplier, error)
	SearchByName(ctx context.Context, text string) ([]domain.Supplier, error)
	ListByCategory(ctx context.Context, code int64) ([]domain.Supplier, error)
	Create(ctx context.Context, supplier *domain.Supplier) error
	Update(ctx context.Context, supplier domain.Supplier) error
	Delete(ctx context.Context, id int64) error

	// LinkCategory returns domain.ErrConflict when the pair is already linked.
	LinkCategory(ctx context.Context, supplierID, categoryCode int64) error
	UnlinkCategory(ctx context.Context, supplierID, categoryCode int64) error
	UnlinkAllCategories(ctx context.Context, supplierID int64) error
}

// CategoryRepository persists medication categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]domain.Category, error)
	GetByCode(ctx context.Context, code int64) (*domain.Category, error)
	Create(ctx context.Context, category *domain.Category) error
	Update(ctx context.Context, category domain.Category) error
	// Delete also drops every supplier link of the category.
	Delete(ctx context.Context, code int64) error
}

// MedicationRepository persists medications.
type MedicationRepository interface {
	List(ctx context.Context) ([]domain.Medication, error)
	GetByID(ctx context.Context, id int64) (*domain.Medication, error)
	// GetByIDForUpdate holds the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Medication, error)
	ListByCategory(ctx context.Context, code int64) ([]domain.Medication, error)
	Create(ctx context.Context, medication *domain.Medication) error
	Update(ctx context.Context, medication domain.Medication) error
	Delete(ctx context.Context, id int64) error
}

// DispensaryRepository reads pickup locations.
type DispensaryRepository interface {
	List(ctx context.Context) ([]domain.Dispensary, error)
	GetByCode(ctx context.Context, code string) (*domain.Dispensary, error)
}

// OrderRepository persists orders and the lines they own.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByNumber(ctx context.Context, number int64) (*domain.Order, error)
	// GetByNumberForUpdate holds the order row until the surrounding transaction ends.
	GetByNumberForUpdate(ctx context.Context, number int64) (*domain.Order, error)
	ListOpenByDispensary(ctx context.Context, dispensaryCode string) ([]domain.Order, error)
	// MarkShipped returns domain.ErrInvalidState when the order has already shipped.
	MarkShipped(ctx context.Context, number int64, at time.Time) error

	AddLine(ctx context.Context, line *domain.OrderLine) error
	GetLine(ctx context.Context, id int64) (*domain.OrderLine, error)
	DeleteLine(ctx context.Context, id int64) error
}

// TxManager runs fn inside an all-or-nothing boundary. Repositories called with the
// context handed to fn take part in the same transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
