package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category classifies medications and the suppliers able to provide them.
type Category struct {
	Code        int64  `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// Validate ensures the category has a label.
func (c Category) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return fmt.Errorf("%w: label is required", ErrInvalidInput)
	}
	return nil
}

// Medication is a stocked item.
type Medication struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	CategoryCode     int64           `json:"category_code"`
	QuantityPerUnit  string          `json:"quantity_per_unit,omitempty"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitsInStock     int             `json:"units_in_stock"`
	UnitsOnOrder     int             `json:"units_on_order"`
	ReorderThreshold int             `json:"reorder_threshold"`
	Unavailable      bool            `json:"unavailable"`
}

// Validate ensures the medication adheres to catalog constraints.
func (m Medication) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if m.UnitsInStock < 0 {
		return fmt.Errorf("%w: units_in_stock must not be negative", ErrInvalidInput)
	}
	if m.UnitsOnOrder < 0 {
		return fmt.Errorf("%w: units_on_order must not be negative", ErrInvalidInput)
	}
	if m.ReorderThreshold < 0 {
		return fmt.Errorf("%w: reorder_threshold must not be negative", ErrInvalidInput)
	}
	if m.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price must not be negative", ErrInvalidInput)
	}
	return nil
}

// NeedsReorder reports whether an available medication has fallen strictly below its
// reorder threshold.
func (m Medication) NeedsReorder() bool {
	return !m.Unavailable && m.UnitsInStock < m.ReorderThreshold
}
