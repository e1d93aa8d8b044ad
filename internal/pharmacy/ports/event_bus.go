package ports

import "context"

// EventBus defines the contract for publishing order lifecycle and reorder events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderNumber int64) error
	PublishOrderShipped(ctx context.Context, orderNumber int64) error
	PublishReorderRequested(ctx context.Context, supplierID int64, medicationCount int) error
}
