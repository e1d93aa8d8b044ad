package kafka

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNoopEventBus(t *testing.T) {
	t.Run("logs every event with its topic", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		bus := NewNoopEventBus(logger)
		ctx := context.Background()

		if err := bus.PublishOrderCreated(ctx, 7); err != nil {
			t.Fatalf("PublishOrderCreated() failed: %v", err)
		}
		if err := bus.PublishOrderShipped(ctx, 7); err != nil {
			t.Fatalf("PublishOrderShipped() failed: %v", err)
		}
		if err := bus.PublishReorderRequested(ctx, 3, 2); err != nil {
			t.Fatalf("PublishReorderRequested() failed: %v", err)
		}

		output := buf.String()
		for _, topic := range []string{TopicOrderCreated, TopicOrderShipped, TopicReorderRequested} {
			if !strings.Contains(output, topic) {
				t.Errorf("expected log to mention topic %s", topic)
			}
		}
	})

	t.Run("falls back to default logger", func(t *testing.T) {
		bus := NewNoopEventBus(nil)
		if bus.logger == nil {
			t.Fatal("expected a logger")
		}
	})
}
