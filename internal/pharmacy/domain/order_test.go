package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/shopspring/decimal"
)

func TestNewOrder(t *testing.T) {
	now := time.Now().UTC()
	d := domain.Dispensary{Code: "DSP01", Name: "Dispensaire Nord", Address: "1 rue du Port"}

	order := domain.NewOrder(d, now)

	if order.DispensaryCode != "DSP01" {
		t.Errorf("expected dispensary DSP01, got %s", order.DispensaryCode)
	}
	if order.DeliveryAddress != d.Address {
		t.Errorf("expected address %q, got %q", d.Address, order.DeliveryAddress)
	}
	if order.ShippedAt != nil {
		t.Error("expected no shipped timestamp")
	}
	if len(order.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(order.Lines))
	}
	if order.Status() != domain.StatusOpen {
		t.Errorf("expected status %s, got %s", domain.StatusOpen, order.Status())
	}
}

func TestOrderShip(t *testing.T) {
	t.Run("ships an open order", func(t *testing.T) {
		order := domain.Order{Number: 1}
		at := time.Now().UTC()

		if err := order.Ship(at); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.ShippedAt == nil || !order.ShippedAt.Equal(at) {
			t.Errorf("expected shipped at %v, got %v", at, order.ShippedAt)
		}
		if order.Status() != domain.StatusShipped {
			t.Errorf("expected status %s, got %s", domain.StatusShipped, order.Status())
		}
	})

	t.Run("rejects shipping twice", func(t *testing.T) {
		order := domain.Order{Number: 1}
		first := time.Now().UTC()
		_ = order.Ship(first)

		err := order.Ship(first.Add(time.Minute))

		if !errors.Is(err, domain.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
		if !order.ShippedAt.Equal(first) {
			t.Error("expected shipped timestamp to be unchanged")
		}
	})

	t.Run("rejects new lines after shipment", func(t *testing.T) {
		order := domain.Order{Number: 1}
		if err := order.CanAddLine(); err != nil {
			t.Fatalf("expected open order to accept lines, got %v", err)
		}
		_ = order.Ship(time.Now())
		if err := order.CanAddLine(); !errors.Is(err, domain.ErrInvalidState) {
			t.Errorf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestOrderLineValidate(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantErr  bool
	}{
		{"positive quantity", 3, false},
		{"zero quantity", 0, true},
		{"negative quantity", -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := domain.OrderLine{Quantity: tt.quantity}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("OrderLine.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMedicationNeedsReorder(t *testing.T) {
	tests := []struct {
		name       string
		medication domain.Medication
		want       bool
	}{
		{"below threshold", domain.Medication{UnitsInStock: 5, ReorderThreshold: 10}, true},
		{"at threshold", domain.Medication{UnitsInStock: 10, ReorderThreshold: 10}, false},
		{"above threshold", domain.Medication{UnitsInStock: 50, ReorderThreshold: 10}, false},
		{"unavailable below threshold", domain.Medication{UnitsInStock: 5, ReorderThreshold: 10, Unavailable: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.medication.NeedsReorder(); got != tt.want {
				t.Errorf("Medication.NeedsReorder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMedicationValidate(t *testing.T) {
	tests := []struct {
		name       string
		medication domain.Medication
		wantErr    bool
	}{
		{"valid medication", domain.Medication{Name: "Paracétamol 500mg", UnitPrice: decimal.RequireFromString("2.50")}, false},
		{"missing name", domain.Medication{Name: "  "}, true},
		{"negative stock", domain.Medication{Name: "X", UnitsInStock: -1}, true},
		{"negative threshold", domain.Medication{Name: "X", ReorderThreshold: -1}, true},
		{"negative price", domain.Medication{Name: "X", UnitPrice: decimal.NewFromInt(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.medication.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Medication.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSupplier(t *testing.T) {
	s := domain.Supplier{
		Name:  "Pharmadis",
		Email: "contact@pharmadis.test",
		Categories: []domain.CategoryRef{
			{Code: 1, Label: "Antalgiques"},
			{Code: 3, Label: "Antibiotiques"},
		},
	}

	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid supplier, got %v", err)
	}
	if !s.Services(3) {
		t.Error("expected supplier to service category 3")
	}
	if s.Services(2) {
		t.Error("expected supplier not to service category 2")
	}

	labels := s.CategoryLabels()
	if len(labels) != 2 || labels[0] != "Antalgiques" || labels[1] != "Antibiotiques" {
		t.Errorf("unexpected labels %v", labels)
	}

	if err := (domain.Supplier{Name: "X"}).Validate(); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing email, got %v", err)
	}
}
