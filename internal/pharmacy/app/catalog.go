package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/shopspring/decimal"
)

// CatalogService manages categories and medications.
type CatalogService struct {
	categories  ports.CategoryRepository
	medications ports.MedicationRepository
	tx          ports.TxManager
	checker     ReorderChecker
	logger      *slog.Logger
}

// NewCatalogService wires required dependencies.
func NewCatalogService(
	categories ports.CategoryRepository,
	medications ports.MedicationRepository,
	tx ports.TxManager,
	checker ReorderChecker,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		categories:  categories,
		medications: medications,
		tx:          tx,
		checker:     checker,
		logger:      logger,
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, code int64) (*domain.Category, error) {
	category, err := s.categories.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("category %d: %w", code, err)
	}
	return category, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, label, description string) (*domain.Category, error) {
	category := domain.Category{
		Label:       strings.TrimSpace(label),
		Description: strings.TrimSpace(description),
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "creating category", "label", category.Label)

	if err := s.categories.Create(ctx, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory replaces the label, and the description when it is non-blank.
func (s *CatalogService) UpdateCategory(ctx context.Context, code int64, label, description string) (*domain.Category, error) {
	var updated *domain.Category
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		category, err := s.categories.GetByCode(ctx, code)
		if err != nil {
			return fmt.Errorf("category %d: %w", code, err)
		}
		category.Label = strings.TrimSpace(label)
		if strings.TrimSpace(description) != "" {
			category.Description = strings.TrimSpace(description)
		}
		if err := category.Validate(); err != nil {
			return err
		}
		if err := s.categories.Update(ctx, *category); err != nil {
			return err
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCategory removes a category that no medication references. Supplier links are
// dropped with it.
func (s *CatalogService) DeleteCategory(ctx context.Context, code int64) error {
	s.logger.InfoContext(ctx, "deleting category", "category_code", code)

	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.categories.GetByCode(ctx, code); err != nil {
			return fmt.Errorf("category %d: %w", code, err)
		}
		medications, err := s.medications.ListByCategory(ctx, code)
		if err != nil {
			return err
		}
		if len(medications) > 0 {
			return fmt.Errorf("%w: category %d still has %d medication(s)", domain.ErrConflict, code, len(medications))
		}
		return s.categories.Delete(ctx, code)
	})
}

func (s *CatalogService) ListMedications(ctx context.Context) ([]domain.Medication, error) {
	return s.medications.List(ctx)
}

func (s *CatalogService) GetMedication(ctx context.Context, id int64) (*domain.Medication, error) {
	medication, err := s.medications.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("medication %d: %w", id, err)
	}
	return medication, nil
}

func (s *CatalogService) ListMedicationsByCategory(ctx context.Context, code int64) ([]domain.Medication, error) {
	if _, err := s.categories.GetByCode(ctx, code); err != nil {
		return nil, fmt.Errorf("category %d: %w", code, err)
	}
	return s.medications.ListByCategory(ctx, code)
}

// CreateMedicationInput captures payload for adding a medication to the catalog.
type CreateMedicationInput struct {
	Name             string          `json:"name"`
	CategoryCode     int64           `json:"category_code"`
	QuantityPerUnit  string          `json:"quantity_per_unit"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitsInStock     int             `json:"units_in_stock"`
	UnitsOnOrder     int             `json:"units_on_order"`
	ReorderThreshold int             `json:"reorder_threshold"`
	Unavailable      bool            `json:"unavailable"`
}

func (s *CatalogService) CreateMedication(ctx context.Context, input CreateMedicationInput) (*domain.Medication, error) {
	medication := domain.Medication{
		Name:             strings.TrimSpace(input.Name),
		CategoryCode:     input.CategoryCode,
		QuantityPerUnit:  strings.TrimSpace(input.QuantityPerUnit),
		UnitPrice:        input.UnitPrice,
		UnitsInStock:     input.UnitsInStock,
		UnitsOnOrder:     input.UnitsOnOrder,
		ReorderThreshold: input.ReorderThreshold,
		Unavailable:      input.Unavailable,
	}
	if err := medication.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "creating medication",
		"name", medication.Name,
		"category_code", medication.CategoryCode,
	)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.categories.GetByCode(ctx, medication.CategoryCode); err != nil {
			return fmt.Errorf("category %d: %w", medication.CategoryCode, err)
		}
		return s.medications.Create(ctx, &medication)
	})
	if err != nil {
		return nil, err
	}
	return &medication, nil
}

// AdjustStock sets the units in stock and checks whether a reorder is due. A failed
// check is logged and does not fail the adjustment.
func (s *CatalogService) AdjustStock(ctx context.Context, id int64, units int) (*domain.Medication, error) {
	if units < 0 {
		return nil, fmt.Errorf("%w: units must not be negative", domain.ErrInvalidInput)
	}

	var updated *domain.Medication
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		medication, err := s.medications.GetByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("medication %d: %w", id, err)
		}
		medication.UnitsInStock = units
		if err := s.medications.Update(ctx, *medication); err != nil {
			return err
		}
		updated = medication
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock adjusted", "medication_id", id, "units_in_stock", units)

	if _, err := s.checker.CheckAndNotify(ctx, *updated); err != nil {
		s.logger.ErrorContext(ctx, "reorder check failed", "error", err, "medication_id", id)
	}
	return updated, nil
}

func (s *CatalogService) DeleteMedication(ctx context.Context, id int64) error {
	s.logger.InfoContext(ctx, "deleting medication", "medication_id", id)

	if err := s.medications.Delete(ctx, id); err != nil {
		return fmt.Errorf("medication %d: %w", id, err)
	}
	return nil
}
