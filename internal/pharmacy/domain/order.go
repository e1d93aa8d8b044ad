package domain

import (
	"fmt"
	"time"
)

// OrderStatus captures the lifecycle of an order. It is derived from ShippedAt.
type OrderStatus string

const (
	StatusOpen    OrderStatus = "open"
	StatusShipped OrderStatus = "shipped"
)

// Dispensary is a pickup location orders are placed for.
type Dispensary struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// OrderLine is a (medication, quantity) entry owned by exactly one order.
type OrderLine struct {
	ID           int64 `json:"id"`
	OrderNumber  int64 `json:"order_number"`
	MedicationID int64 `json:"medication_id"`
	Quantity     int   `json:"quantity"`
}

// Validate ensures the line quantity is positive.
func (l OrderLine) Validate() error {
	if l.Quantity <= 0 {
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
	}
	return nil
}

// Order (commande) is a purchase request for a dispensary.
type Order struct {
	Number          int64       `json:"number"`
	DispensaryCode  string      `json:"dispensary_code"`
	DeliveryAddress string      `json:"delivery_address"`
	CreatedAt       time.Time   `json:"created_at"`
	ShippedAt       *time.Time  `json:"shipped_at,omitempty"`
	Lines           []OrderLine `json:"lines"`
}

// NewOrder opens an order for the dispensary, copying its address.
func NewOrder(d Dispensary, now time.Time) Order {
	return Order{
		DispensaryCode:  d.Code,
		DeliveryAddress: d.Address,
		CreatedAt:       now,
		Lines:           []OrderLine{},
	}
}

// Status reports the lifecycle state.
func (o Order) Status() OrderStatus {
	if o.ShippedAt != nil {
		return StatusShipped
	}
	return StatusOpen
}

// IsShipped indicates whether the order reached its terminal state.
func (o Order) IsShipped() bool {
	return o.ShippedAt != nil
}

// CanAddLine rejects line additions once the order has shipped.
func (o Order) CanAddLine() error {
	if o.IsShipped() {
		return fmt.Errorf("%w: order %d already shipped", ErrInvalidState, o.Number)
	}
	return nil
}

// Ship moves the order to the shipped state. Shipping twice is an error.
func (o *Order) Ship(at time.Time) error {
	if o.IsShipped() {
		return fmt.Errorf("%w: order %d already shipped", ErrInvalidState, o.Number)
	}
	shipped := at
	o.ShippedAt = &shipped
	return nil
}
