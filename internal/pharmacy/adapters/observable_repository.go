package adapters

import (
	"context"
	"time"

	"github.com/dejobratic/pharmacie/internal/database"
	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/dejobratic/pharmacie/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// observeQuery wraps one repository call in a span and records its duration.
func observeQuery(
	ctx context.Context,
	metrics *database.Metrics,
	spanName, operation string,
	fn func(ctx context.Context) error,
	attrs ...attribute.KeyValue,
) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := fn(ctx)
	metrics.RecordQuery(ctx, operation, time.Since(start), err)
	telemetry.SetSpanOutcome(span, err)
	return err
}

type ObservableOrderRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableOrderRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableOrderRepository {
	return &ObservableOrderRepository{repo: repo, metrics: metrics}
}

func (r *ObservableOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	return observeQuery(ctx, r.metrics, "OrderRepository.Create", "create_order", func(ctx context.Context) error {
		return r.repo.Create(ctx, order)
	}, attribute.String("order.dispensary_code", order.DispensaryCode))
}

func (r *ObservableOrderRepository) GetByNumber(ctx context.Context, number int64) (*domain.Order, error) {
	var order *domain.Order
	err := observeQuery(ctx, r.metrics, "OrderRepository.GetByNumber", "get_order_by_number", func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByNumber(ctx, number)
		return err
	}, attribute.Int64("order.number", number))
	return order, err
}

func (r *ObservableOrderRepository) GetByNumberForUpdate(ctx context.Context, number int64) (*domain.Order, error) {
	var order *domain.Order
	err := observeQuery(ctx, r.metrics, "OrderRepository.GetByNumberForUpdate", "lock_order_by_number", func(ctx context.Context) error {
		var err error
		order, err = r.repo.GetByNumberForUpdate(ctx, number)
		return err
	}, attribute.Int64("order.number", number))
	return order, err
}

func (r *ObservableOrderRepository) ListOpenByDispensary(ctx context.Context, dispensaryCode string) ([]domain.Order, error) {
	var orders []domain.Order
	err := observeQuery(ctx, r.metrics, "OrderRepository.ListOpenByDispensary", "list_open_orders", func(ctx context.Context) error {
		var err error
		orders, err = r.repo.ListOpenByDispensary(ctx, dispensaryCode)
		return err
	}, attribute.String("order.dispensary_code", dispensaryCode))
	return orders, err
}

func (r *ObservableOrderRepository) MarkShipped(ctx context.Context, number int64, at time.Time) error {
	return observeQuery(ctx, r.metrics, "OrderRepository.MarkShipped", "mark_order_shipped", func(ctx context.Context) error {
		return r.repo.MarkShipped(ctx, number, at)
	}, attribute.Int64("order.number", number))
}

func (r *ObservableOrderRepository) AddLine(ctx context.Context, line *domain.OrderLine) error {
	return observeQuery(ctx, r.metrics, "OrderRepository.AddLine", "add_order_line", func(ctx context.Context) error {
		return r.repo.AddLine(ctx, line)
	},
		attribute.Int64("order.number", line.OrderNumber),
		attribute.Int64("medication.id", line.MedicationID),
	)
}

func (r *ObservableOrderRepository) GetLine(ctx context.Context, id int64) (*domain.OrderLine, error) {
	var line *domain.OrderLine
	err := observeQuery(ctx, r.metrics, "OrderRepository.GetLine", "get_order_line", func(ctx context.Context) error {
		var err error
		line, err = r.repo.GetLine(ctx, id)
		return err
	}, attribute.Int64("line.id", id))
	return line, err
}

func (r *ObservableOrderRepository) DeleteLine(ctx context.Context, id int64) error {
	return observeQuery(ctx, r.metrics, "OrderRepository.DeleteLine", "delete_order_line", func(ctx context.Context) error {
		return r.repo.DeleteLine(ctx, id)
	}, attribute.Int64("line.id", id))
}

type ObservableMedicationRepository struct {
	repo    ports.MedicationRepository
	metrics *database.Metrics
}

func NewObservableMedicationRepository(repo ports.MedicationRepository, metrics *database.Metrics) *ObservableMedicationRepository {
	return &ObservableMedicationRepository{repo: repo, metrics: metrics}
}

func (r *ObservableMedicationRepository) List(ctx context.Context) ([]domain.Medication, error) {
	var medications []domain.Medication
	err := observeQuery(ctx, r.metrics, "MedicationRepository.List", "list_medications", func(ctx context.Context) error {
		var err error
		medications, err = r.repo.List(ctx)
		return err
	})
	return medications, err
}

func (r *ObservableMedicationRepository) GetByID(ctx context.Context, id int64) (*domain.Medication, error) {
	var medication *domain.Medication
	err := observeQuery(ctx, r.metrics, "MedicationRepository.GetByID", "get_medication", func(ctx context.Context) error {
		var err error
		medication, err = r.repo.GetByID(ctx, id)
		return err
	}, attribute.Int64("medication.id", id))
	return medication, err
}

func (r *ObservableMedicationRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Medication, error) {
	var medication *domain.Medication
	err := observeQuery(ctx, r.metrics, "MedicationRepository.GetByIDForUpdate", "lock_medication", func(ctx context.Context) error {
		var err error
		medication, err = r.repo.GetByIDForUpdate(ctx, id)
		return err
	}, attribute.Int64("medication.id", id))
	return medication, err
}

func (r *ObservableMedicationRepository) ListByCategory(ctx context.Context, code int64) ([]domain.Medication, error) {
	var medications []domain.Medication
	err := observeQuery(ctx, r.metrics, "MedicationRepository.ListByCategory", "list_medications_by_category", func(ctx context.Context) error {
		var err error
		medications, err = r.repo.ListByCategory(ctx, code)
		return err
	}, attribute.Int64("category.code", code))
	return medications, err
}

func (r *ObservableMedicationRepository) Create(ctx context.Context, medication *domain.Medication) error {
	return observeQuery(ctx, r.metrics, "MedicationRepository.Create", "create_medication", func(ctx context.Context) error {
		return r.repo.Create(ctx, medication)
	}, attribute.Int64("category.code", medication.CategoryCode))
}

func (r *ObservableMedicationRepository) Update(ctx context.Context, medication domain.Medication) error {
	return observeQuery(ctx, r.metrics, "MedicationRepository.Update", "update_medication", func(ctx context.Context) error {
		return r.repo.Update(ctx, medication)
	},
		attribute.Int64("medication.id", medication.ID),
		attribute.Int("medication.units_in_stock", medication.UnitsInStock),
	)
}

func (r *ObservableMedicationRepository) Delete(ctx context.Context, id int64) error {
	return observeQuery(ctx, r.metrics, "MedicationRepository.Delete", "delete_medication", func(ctx context.Context) error {
		return r.repo.Delete(ctx, id)
	}, attribute.Int64("medication.id", id))
}
