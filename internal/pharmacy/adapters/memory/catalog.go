package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

var (
	_ ports.CategoryRepository   = (*CategoryRepository)(nil)
	_ ports.MedicationRepository = (*MedicationRepository)(nil)
	_ ports.DispensaryRepository = (*DispensaryRepository)(nil)
)

// CategoryRepository keeps categories in memory.
type CategoryRepository struct {
	store *Store
}

// NewCategoryRepository constructs a CategoryRepository over the store.
func NewCategoryRepository(store *Store) *CategoryRepository {
	return &CategoryRepository{store: store}
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	defer r.store.rlock(ctx)()
	result := make([]domain.Category, 0, len(r.store.categories))
	for _, c := range r.store.categories {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *CategoryRepository) GetByCode(ctx context.Context, code int64) (*domain.Category, error) {
	defer r.store.rlock(ctx)()
	c, ok := r.store.categories[code]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &c, nil
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	defer r.store.wlock(ctx)()
	category.Code = r.store.nextCategoryCode
	r.store.nextCategoryCode++
	r.store.categories[category.Code] = *category
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.categories[category.Code]; !ok {
		return ports.ErrNotFound
	}
	r.store.categories[category.Code] = category
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, code int64) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.categories[code]; !ok {
		return ports.ErrNotFound
	}
	delete(r.store.categories, code)
	for _, codes := range r.store.links {
		delete(codes, code)
	}
	return nil
}

// MedicationRepository keeps medications in memory.
type MedicationRepository struct {
	store *Store
}

// NewMedicationRepository constructs a MedicationRepository over the store.
func NewMedicationRepository(store *Store) *MedicationRepository {
	return &MedicationRepository{store: store}
}

// List returns medications ordered by id.
func (r *MedicationRepository) List(ctx context.Context) ([]domain.Medication, error) {
	defer r.store.rlock(ctx)()
	return r.collect(func(domain.Medication) bool { return true }), nil
}

func (r *MedicationRepository) GetByID(ctx context.Context, id int64) (*domain.Medication, error) {
	defer r.store.rlock(ctx)()
	m, ok := r.store.medications[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &m, nil
}

// GetByIDForUpdate needs no row lock: the TxManager serializes transactions.
func (r *MedicationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Medication, error) {
	return r.GetByID(ctx, id)
}

func (r *MedicationRepository) ListByCategory(ctx context.Context, code int64) ([]domain.Medication, error) {
	defer r.store.rlock(ctx)()
	return r.collect(func(m domain.Medication) bool { return m.CategoryCode == code }), nil
}

func (r *MedicationRepository) Create(ctx context.Context, medication *domain.Medication) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.categories[medication.CategoryCode]; !ok {
		return ports.ErrNotFound
	}
	medication.ID = r.store.nextMedicationID
	r.store.nextMedicationID++
	r.store.medications[medication.ID] = *medication
	return nil
}

func (r *MedicationRepository) Update(ctx context.Context, medication domain.Medication) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.medications[medication.ID]; !ok {
		return ports.ErrNotFound
	}
	r.store.medications[medication.ID] = medication
	return nil
}

func (r *MedicationRepository) Delete(ctx context.Context, id int64) error {
	defer r.store.wlock(ctx)()
	if _, ok := r.store.medications[id]; !ok {
		return ports.ErrNotFound
	}
	for _, l := range r.store.lines {
		if l.MedicationID == id {
			return fmt.Errorf("%w: medication %d is referenced by order %d", domain.ErrConflict, id, l.OrderNumber)
		}
	}
	delete(r.store.medications, id)
	return nil
}

func (r *MedicationRepository) collect(keep func(domain.Medication) bool) []domain.Medication {
	result := make([]domain.Medication, 0)
	for _, m := range r.store.medications {
		if keep(m) {
			result = append(result, m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// DispensaryRepository reads seeded dispensaries.
type DispensaryRepository struct {
	store *Store
}

// NewDispensaryRepository constructs a DispensaryRepository over the store.
func NewDispensaryRepository(store *Store) *DispensaryRepository {
	return &DispensaryRepository{store: store}
}

func (r *DispensaryRepository) List(ctx context.Context) ([]domain.Dispensary, error) {
	defer r.store.rlock(ctx)()
	result := make([]domain.Dispensary, 0, len(r.store.dispensaries))
	for _, d := range r.store.dispensaries {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}

func (r *DispensaryRepository) GetByCode(ctx context.Context, code string) (*domain.Dispensary, error) {
	defer r.store.rlock(ctx)()
	d, ok := r.store.dispensaries[code]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return &d, nil
}
