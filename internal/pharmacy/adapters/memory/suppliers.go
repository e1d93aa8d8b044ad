package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

var _ ports.SupplierRepository = (*SupplierRepository)(nil)

// SupplierRepository keeps suppliers and the supplier/category join set in memory.
type SupplierRepository struct {
	store *Store
}

// NewSupplierRepository constructs a SupplierRepository over the store.
func NewSupplierRepository(store *Store) *SupplierRepository {
	return &SupplierRepository{store: store}
}

func (r *SupplierRepository) List(ctx context.Context) ([]domain.Supplier, error) {
	defer r.store.rlock(ctx)()
	return r.collect(func(domain.Supplier) bool { return true }), nil
}

func (r *SupplierRepository) GetByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	defer r.store.rlock(ctx)()
	s, ok := r.store.suppliers[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	resolved := r.resolve(s)
	return &resolved, nil
}

// SearchByName matches a case-insensitive substring of the name.
func (r *SupplierRepository) SearchByName(ctx context.Context, text string) ([]domain.Supplier, error) {
	defer r.store.rlock(ctx)()
	needle := strings.ToLower(text)
	return r.collect(func(s domain.Supplier) bool {
		return strings.Contains(strings.ToLower(s.Name), needle)
	}), nil
}

func (r *SupplierRepository) ListByCategory(ctx context.Context, code int64) ([]domain.Supplier, error) {
	defer r.store.rlock(ctx)()
	return r.collect(func(s domain.Supplier) bool {
		_, ok := r.store.links[s.ID][code]
		return ok
	}), nil
}

func (r *SupplierRepository) Create(ctx context.Context, supplier *domain.Supplier) error {
	defer r.store.wlock(ctx)()
	if r.nameTaken(supplier.Name, 0) {
		return fmt.Errorf("%w: supplier name %q already exists", domain.ErrConflict, supplier.Name)
	}
	supplier.ID = r.store.nextSupplierID
	r.store.nextSupplierID++
	supplier.Categories = []domain.CategoryRef{}
	r.store.suppliers[supplier.ID] = domain.Supplier{ID: supplier.ID, Name: supplier.Name, Email: supplier.Email}
	return nil
}

func (r *SupplierRepository) Update(ctx context.Context, supplier domain.Supplier) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.suppliers[supplier.ID]; !ok {
		return ports.ErrNotFound
	}
	if r.nameTaken(supplier.Name, supplier.ID) {
		return fmt.Errorf("%w: supplier name %q already exists", domain.ErrConflict, supplier.Name)
	}
	r.store.suppliers[supplier.ID] = domain.Supplier{ID: supplier.ID, Name: supplier.Name, Email: supplier.Email}
	return nil
}

func (r *SupplierRepository) Delete(ctx context.Context, id int64) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.suppliers[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.store.suppliers, id)
	delete(r.store.links, id)
	return nil
}

func (r *SupplierRepository) LinkCategory(ctx context.Context, supplierID, categoryCode int64) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.suppliers[supplierID]; !ok {
		return ports.ErrNotFound
	}
	if _, ok := r.store.categories[categoryCode]; !ok {
		return ports.ErrNotFound
	}
	codes, ok := r.store.links[supplierID]
	if !ok {
		codes = make(map[int64]struct{})
		r.store.links[supplierID] = codes
	}
	if _, linked := codes[categoryCode]; linked {
		return fmt.Errorf("%w: supplier %d already linked to category %d", domain.ErrConflict, supplierID, categoryCode)
	}
	codes[categoryCode] = struct{}{}
	return nil
}

func (r *SupplierRepository) UnlinkCategory(ctx context.Context, supplierID, categoryCode int64) error {
	defer r.store.wlock(ctx)()
	delete(r.store.links[supplierID], categoryCode)
	return nil
}

func (r *SupplierRepository) UnlinkAllCategories(ctx context.Context, supplierID int64) error {
	defer r.store.wlock(ctx)()
	delete(r.store.links, supplierID)
	return nil
}

func (r *SupplierRepository) nameTaken(name string, exceptID int64) bool {
	for id, s := range r.store.suppliers {
		if id != exceptID && s.Name == name {
			return true
		}
	}
	return false
}

func (r *SupplierRepository) collect(keep func(domain.Supplier) bool) []domain.Supplier {
	result := make([]domain.Supplier, 0)
	for _, s := range r.store.suppliers {
		if keep(s) {
			result = append(result, r.resolve(s))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (r *SupplierRepository) resolve(s domain.Supplier) domain.Supplier {
	refs := make([]domain.CategoryRef, 0, len(r.store.links[s.ID]))
	for code := range r.store.links[s.ID] {
		if c, ok := r.store.categories[code]; ok {
			refs = append(refs, domain.CategoryRef{Code: c.Code, Label: c.Label})
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Code < refs[j].Code })
	s.Categories = refs
	return s
}
