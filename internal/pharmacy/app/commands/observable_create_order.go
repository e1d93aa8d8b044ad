package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/pharmacie/internal/pharmacy/domain"
	"github.com/dejobratic/pharmacie/internal/pharmacy/metrics"
	"github.com/dejobratic/pharmacie/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCommandHandler struct {
	handler CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCommandHandler(handler CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCommandHandler {
	return &ObservableCommandHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	o.logger.InfoContext(ctx, "creating order", "dispensary_code", cmd.DispensaryCode)

	order, err := o.handler.Handle(ctx, cmd)
	if err != nil && order == nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"dispensary_code", cmd.DispensaryCode,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int64("order.number", order.Number),
		attribute.String("order.dispensary_code", order.DispensaryCode),
		attribute.String("order.status", string(order.Status())),
	)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.WarnContext(ctx, "order created with errors",
			"error", err,
			"order_number", order.Number,
		)
	} else {
		o.logger.InfoContext(ctx, "order created successfully",
			"order_number", order.Number,
			"dispensary_code", order.DispensaryCode,
		)
		telemetry.SetSpanSuccess(span)
	}

	success = true
	return order, err
}
