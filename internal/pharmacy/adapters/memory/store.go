package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
)

// Store is the shared in-memory state behind every memory repository. It is useful for
// local development and tests.
type Store struct {
	mu sync.RWMutex

	nextSupplierID   int64
	nextCategoryCode int64
	nextMedicationID int64
	nextOrderNumber  int64
	nextLineID       int64

	suppliers    map[int64]domain.Supplier
	categories   map[int64]domain.Category
	links        map[int64]map[int64]struct{}
	medications  map[int64]domain.Medication
	dispensaries map[string]domain.Dispensary
	orders       map[int64]domain.Order
	lines        map[int64]domain.OrderLine
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		nextSupplierID:   1,
		nextCategoryCode: 1,
		nextMedicationID: 1,
		nextOrderNumber:  1,
		nextLineID:       1,
		suppliers:        make(map[int64]domain.Supplier),
		categories:       make(map[int64]domain.Category),
		links:            make(map[int64]map[int64]struct{}),
		medications:      make(map[int64]domain.Medication),
		dispensaries:     make(map[string]domain.Dispensary),
		orders:           make(map[int64]domain.Order),
		lines:            make(map[int64]domain.OrderLine),
	}
}

// SeedDispensaries registers pickup locations. Dispensaries are read-only afterwards.
func (s *Store) SeedDispensaries(dispensaries ...domain.Dispensary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range dispensaries {
		s.dispensaries[d.Code] = d
	}
}

type txKey struct{}

// Inside a transaction the TxManager already holds the write lock.
func inTx(ctx context.Context) bool {
	v, ok := ctx.Value(txKey{}).(bool)
	return ok && v
}

func (s *Store) rlock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) wlock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	nextSupplierID   int64
	nextCategoryCode int64
	nextMedicationID int64
	nextOrderNumber  int64
	nextLineID       int64

	suppliers   map[int64]domain.Supplier
	categories  map[int64]domain.Category
	links       map[int64]map[int64]struct{}
	medications map[int64]domain.Medication
	orders      map[int64]domain.Order
	lines       map[int64]domain.OrderLine
}

func (s *Store) snapshot() snapshot {
	links := make(map[int64]map[int64]struct{}, len(s.links))
	for id, codes := range s.links {
		links[id] = maps.Clone(codes)
	}
	return snapshot{
		nextSupplierID:   s.nextSupplierID,
		nextCategoryCode: s.nextCategoryCode,
		nextMedicationID: s.nextMedicationID,
		nextOrderNumber:  s.nextOrderNumber,
		nextLineID:       s.nextLineID,
		suppliers:        maps.Clone(s.suppliers),
		categories:       maps.Clone(s.categories),
		links:            links,
		medications:      maps.Clone(s.medications),
		orders:           maps.Clone(s.orders),
		lines:            maps.Clone(s.lines),
	}
}

func (s *Store) restore(snap snapshot) {
	s.nextSupplierID = snap.nextSupplierID
	s.nextCategoryCode = snap.nextCategoryCode
	s.nextMedicationID = snap.nextMedicationID
	s.nextOrderNumber = snap.nextOrderNumber
	s.nextLineID = snap.nextLineID
	s.suppliers = snap.suppliers
	s.categories = snap.categories
	s.links = snap.links
	s.medications = snap.medications
	s.orders = snap.orders
	s.lines = snap.lines
}

// TxManager serializes transactions on the store and restores the previous state when
// the transaction function fails.
type TxManager struct {
	store *Store
}

// NewTxManager constructs a TxManager over the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// WithinTx runs fn holding the store write lock. Nested calls join the outer transaction.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}
