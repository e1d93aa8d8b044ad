package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

// SupplierService manages suppliers and the categories they service. Every mutation of
// the supplier/category relation updates both sides inside one transaction.
type SupplierService struct {
	suppliers  ports.SupplierRepository
	categories ports.CategoryRepository
	tx         ports.TxManager
	logger     *slog.Logger
}

// NewSupplierService wires required dependencies.
func NewSupplierService(
	suppliers ports.SupplierRepository,
	categories ports.CategoryRepository,
	tx ports.TxManager,
	logger *slog.Logger,
) *SupplierService {
	return &SupplierService{
		suppliers:  suppliers,
		categories: categories,
		tx:         tx,
		logger:     logger,
	}
}

// ListAll returns every supplier.
func (s *SupplierService) ListAll(ctx context.Context) ([]domain.Supplier, error) {
	return s.suppliers.List(ctx)
}

// GetByID retrieves a supplier by ID.
func (s *SupplierService) GetByID(ctx context.Context, id int64) (*domain.Supplier, error) {
	supplier, err := s.suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("supplier %d: %w", id, err)
	}
	return supplier, nil
}

// SearchByName returns suppliers whose name contains text, ignoring case.
func (s *SupplierService) SearchByName(ctx context.Context, text string) ([]domain.Supplier, error) {
	return s.suppliers.SearchByName(ctx, text)
}

// ListByCategory returns the suppliers servicing a category.
func (s *SupplierService) ListByCategory(ctx context.Context, code int64) ([]domain.Supplier, error) {
	return s.suppliers.ListByCategory(ctx, code)
}

// Create persists a new supplier. Name uniqueness is left to the storage constraint.
func (s *SupplierService) Create(ctx context.Context, name, email string) (*domain.Supplier, error) {
	supplier := domain.Supplier{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := supplier.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "creating supplier", "name", supplier.Name)

	if err := s.suppliers.Create(ctx, &supplier); err != nil {
		return nil, err
	}
	return &supplier, nil
}

// Update applies name and email when they are non-blank.
func (s *SupplierService) Update(ctx context.Context, id int64, name, email string) (*domain.Supplier, error) {
	s.logger.InfoContext(ctx, "updating supplier", "supplier_id", id)

	var updated *domain.Supplier
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supplier, err := s.suppliers.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("supplier %d: %w", id, err)
		}
		if strings.TrimSpace(name) != "" {
			supplier.Name = strings.TrimSpace(name)
		}
		if strings.TrimSpace(email) != "" {
			supplier.Email = strings.TrimSpace(email)
		}
		if err := s.suppliers.Update(ctx, *supplier); err != nil {
			return err
		}
		updated = supplier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete detaches the supplier from all of its categories, then removes it.
func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	s.logger.InfoContext(ctx, "deleting supplier", "supplier_id", id)

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.suppliers.GetByID(ctx, id); err != nil {
			return fmt.Errorf("supplier %d: %w", id, err)
		}
		if err := s.suppliers.UnlinkAllCategories(ctx, id); err != nil {
			return err
		}
		return s.suppliers.Delete(ctx, id)
	})
}

// AddCategory links a supplier to a category. Linking an existing pair fails with
// domain.ErrConflict.
func (s *SupplierService) AddCategory(ctx context.Context, supplierID, categoryCode int64) (*domain.Supplier, error) {
	s.logger.InfoContext(ctx, "linking supplier to category",
		"supplier_id", supplierID,
		"category_code", categoryCode,
	)

	var updated *domain.Supplier
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		supplier, category, err := s.loadPair(ctx, supplierID, categoryCode)
		if err != nil {
			return err
		}
		if supplier.Services(categoryCode) {
			return fmt.Errorf("%w: supplier %q already services category %q",
				domain.ErrConflict, supplier.Name, category.Label)
		}
		if err := s.suppliers.LinkCategory(ctx, supplierID, categoryCode); err != nil {
			return err
		}
		updated, err = s.suppliers.GetByID(ctx, supplierID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveCategory unlinks a supplier from a category. Unlinking a pair that is not linked
// is a no-op.
func (s *SupplierService) RemoveCategory(ctx context.Context, supplierID, categoryCode int64) (*domain.Supplier, error) {
	s.logger.InfoContext(ctx, "unlinking supplier from category",
		"supplier_id", supplierID,
		"category_code", categoryCode,
	)

	var updated *domain.Supplier
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, _, err := s.loadPair(ctx, supplierID, categoryCode); err != nil {
			return err
		}
		if err := s.suppliers.UnlinkCategory(ctx, supplierID, categoryCode); err != nil {
			return err
		}
		var err error
		updated, err = s.suppliers.GetByID(ctx, supplierID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *SupplierService) loadPair(ctx context.Context, supplierID, categoryCode int64) (*domain.Supplier, *domain.Category, error) {
	supplier, err := s.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, nil, fmt.Errorf("supplier %d: %w", supplierID, err)
	}
	category, err := s.categories.GetByCode(ctx, categoryCode)
	if err != nil {
		return nil, nil, fmt.Errorf("category %d: %w", categoryCode, err)
	}
	return supplier, category, nil
}
