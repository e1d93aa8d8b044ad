package domain

import (
	"fmt"
	"strings"
)

// CategoryRef is the resolved view of a category a supplier services.
type CategoryRef struct {
	Code  int64  `json:"code"`
	Label string `json:"label"`
}

// Supplier (fournisseur) is a vendor servicing one or more medication categories.
type Supplier struct {
	ID         int64         `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Categories []CategoryRef `json:"categories"`
}

// Validate ensures the supplier carries the required identity fields.
func (s Supplier) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(s.Email) == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return nil
}

// Services reports whether the supplier is linked to the category.
func (s Supplier) Services(code int64) bool {
	for _, c := range s.Categories {
		if c.Code == code {
			return true
		}
	}
	return false
}

// CategoryLabels flattens the serviced categories to their labels.
func (s Supplier) CategoryLabels() []string {
	labels := make([]string, 0, len(s.Categories))
	for _, c := range s.Categories {
		labels = append(labels, c.Label)
	}
	return labels
}
