package app

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/app/commands"
	"github.com/dejobratic/pharmacie/internal/pharmacy/app/queries"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/metrics"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
)

// OrderService bundles use cases for handling dispensary orders via the API.
type OrderService struct {
	orders       ports.OrderRepository
	medications  ports.MedicationRepository
	dispensaries ports.DispensaryRepository
	events       ports.EventBus
	idemStore    ports.IdempotencyStore
	tx           ports.TxManager
	checker      ReorderChecker
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time

	createOrderHandler commands.CommandHandler
	getOrderHandler    *queries.GetOrderQueryHandler
}

// NewOrderService wires required dependencies.
func NewOrderService(
	orders ports.OrderRepository,
	medications ports.MedicationRepository,
	dispensaries ports.DispensaryRepository,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	tx ports.TxManager,
	checker ReorderChecker,
	logger *slog.Logger,
	metrics *metrics.Metrics,
) *OrderService {
	coreHandler := commands.NewCreateOrderCommandHandler(orders, dispensaries, events)
	observableHandler := commands.NewObservableCommandHandler(coreHandler, logger, metrics)

	return &OrderService{
		orders:             orders,
		medications:        medications,
		dispensaries:       dispensaries,
		events:             events,
		idemStore:          idem,
		tx:                 tx,
		checker:            checker,
		metrics:            metrics,
		logger:             logger,
		now:                func() time.Time { return time.Now().UTC() },
		createOrderHandler: observableHandler,
		getOrderHandler:    queries.NewGetOrderQueryHandler(orders),
	}
}

// CreateOrder opens an order for a dispensary. The order is returned even when the
// creation event could not be published.
func (s *OrderService) CreateOrder(ctx context.Context, dispensaryCode string) (*domain.Order, error) {
	order, err := s.createOrderHandler.Handle(ctx, commands.CreateOrderCommand{DispensaryCode: dispensaryCode})
	if order != nil && err != nil {
		return order, nil
	}
	return order, err
}

// GetOrder retrieves an order with its lines.
func (s *OrderService) GetOrder(ctx context.Context, number int64) (*domain.Order, error) {
	return s.getOrderHandler.Handle(ctx, queries.GetOrderQuery{OrderNumber: number})
}

// ListOpenOrders returns the unshipped orders of a dispensary.
func (s *OrderService) ListOpenOrders(ctx context.Context, dispensaryCode string) ([]domain.Order, error) {
	return s.orders.ListOpenByDispensary(ctx, dispensaryCode)
}

// AddLine appends a line to an open order and books the quantity as on order.
func (s *OrderService) AddLine(ctx context.Context, orderNumber, medicationID int64, quantity int) (*domain.OrderLine, error) {
	line := domain.OrderLine{OrderNumber: orderNumber, MedicationID: medicationID, Quantity: quantity}
	if err := line.Validate(); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetByNumberForUpdate(ctx, orderNumber)
		if err != nil {
			return fmt.Errorf("order %d: %w", orderNumber, err)
		}
		if err := order.CanAddLine(); err != nil {
			return err
		}
		medication, err := s.medications.GetByIDForUpdate(ctx, medicationID)
		if err != nil {
			return fmt.Errorf("medication %d: %w", medicationID, err)
		}
		if err := s.orders.AddLine(ctx, &line); err != nil {
			return err
		}
		medication.UnitsOnOrder += quantity
		return s.medications.Update(ctx, *medication)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order line added",
		"order_number", orderNumber,
		"line_id", line.ID,
		"medication_id", medicationID,
		"quantity", quantity,
	)
	return &line, nil
}

// RemoveLine deletes a line whatever the state of its order. Quantities booked on an open
// order are released.
func (s *OrderService) RemoveLine(ctx context.Context, lineID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		line, err := s.orders.GetLine(ctx, lineID)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineID, err)
		}
		order, err := s.orders.GetByNumberForUpdate(ctx, line.OrderNumber)
		if err != nil {
			return fmt.Errorf("order %d: %w", line.OrderNumber, err)
		}
		if err := s.orders.DeleteLine(ctx, lineID); err != nil {
			return err
		}
		if order.IsShipped() {
			return nil
		}
		medication, err := s.medications.GetByIDForUpdate(ctx, line.MedicationID)
		if err != nil {
			return fmt.Errorf("medication %d: %w", line.MedicationID, err)
		}
		medication.UnitsOnOrder = max(medication.UnitsOnOrder-line.Quantity, 0)
		return s.medications.Update(ctx, *medication)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "order line removed", "line_id", lineID)
	return nil
}

// ShipOrder marks the order shipped and moves every line quantity out of stock. Once
// committed, medications that fell below their threshold trigger a reorder sweep.
func (s *OrderService) ShipOrder(ctx context.Context, number int64) (*domain.Order, error) {
	var (
		shipped  *domain.Order
		affected []domain.Medication
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		affected = nil

		order, err := s.orders.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return fmt.Errorf("order %d: %w", number, err)
		}
		if err := order.Ship(s.now()); err != nil {
			return err
		}

		quantities := make(map[int64]int, len(order.Lines))
		for _, line := range order.Lines {
			quantities[line.MedicationID] += line.Quantity
		}
		// Ascending ids keep concurrent shipments from locking medications in opposite orders.
		for _, id := range slices.Sorted(maps.Keys(quantities)) {
			medication, err := s.medications.GetByIDForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("medication %d: %w", id, err)
			}
			medication.UnitsInStock = max(medication.UnitsInStock-quantities[id], 0)
			medication.UnitsOnOrder = max(medication.UnitsOnOrder-quantities[id], 0)
			if err := s.medications.Update(ctx, *medication); err != nil {
				return err
			}
			affected = append(affected, *medication)
		}

		if err := s.orders.MarkShipped(ctx, number, *order.ShippedAt); err != nil {
			return err
		}
		shipped = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordOrderShipped(ctx)
	s.logger.InfoContext(ctx, "order shipped", "order_number", number, "lines", len(shipped.Lines))

	if err := s.events.PublishOrderShipped(ctx, number); err != nil {
		s.logger.WarnContext(ctx, "failed to publish order shipped event", "error", err, "order_number", number)
	}

	// A sweep covers every medication, so one is enough.
	for _, medication := range affected {
		swept, err := s.checker.CheckAndNotify(ctx, medication)
		if err != nil {
			s.logger.ErrorContext(ctx, "reorder check failed", "error", err, "medication_id", medication.ID)
		}
		if swept {
			break
		}
	}

	return shipped, nil
}

// ListDispensaries returns every pickup location.
func (s *OrderService) ListDispensaries(ctx context.Context) ([]domain.Dispensary, error) {
	return s.dispensaries.List(ctx)
}

// GetDispensary retrieves a pickup location by code.
func (s *OrderService) GetDispensary(ctx context.Context, code string) (*domain.Dispensary, error) {
	dispensary, err := s.dispensaries.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("dispensary %s: %w", code, err)
	}
	return dispensary, nil
}

// SaveIdempotentResponse writes response details for a key.
func (s *OrderService) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	if s.idemStore == nil {
		return nil
	}
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
// A service built without a store never replays.
func (s *OrderService) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	if s.idemStore == nil {
		return nil, nil
	}
	return s.idemStore.Get(ctx, key)
}
