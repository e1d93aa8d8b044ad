package adapters

import (
	"context"
	"log/slog"

	"github.com/dejobratic/pharmacie/internal/pharmacy/ports"
	"github.com/dejobratic/pharmacie/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableMailer struct {
	mailer ports.Mailer
	logger *slog.Logger
}

func NewObservableMailer(mailer ports.Mailer, logger *slog.Logger) *ObservableMailer {
	return &ObservableMailer{mailer: mailer, logger: logger}
}

func (m *ObservableMailer) Send(ctx context.Context, msg ports.Message) error {
	ctx, span := telemetry.StartSpan(ctx, "Mailer.Send")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("mail.to", msg.To),
		attribute.Int("mail.size", len(msg.HTML)),
	)

	err := m.mailer.Send(ctx, msg)
	telemetry.SetSpanOutcome(span, err)
	if err != nil {
		return err
	}

	m.logger.DebugContext(ctx, "email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}
