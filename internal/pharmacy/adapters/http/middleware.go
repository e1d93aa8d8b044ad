package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dejobratic/pharmacie/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// route returns the matched ServeMux pattern, available once the mux has served r.
func route(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}

func WithMetrics(next http.Handler, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		metrics.RecordRequest(r.Context(), r.Method, route(r), rw.statusCode, duration)
	})
}

// WithTracing starts a server span per request, continuing any incoming trace context.
func WithTracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := telemetry.StartSpan(ctx, "HTTP "+r.Method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		rw := newResponseWriter(w)
		r = r.WithContext(ctx)
		next.ServeHTTP(rw, r)

		span.SetName(r.Method + " " + route(r))
		telemetry.AddSpanAttributes(span,
			attribute.String("http.request.method", r.Method),
			attribute.String("http.route", route(r)),
			attribute.Int("http.response.status_code", rw.statusCode),
		)
		if rw.statusCode >= http.StatusInternalServerError {
			telemetry.RecordSpanError(span, fmt.Errorf("status %d", rw.statusCode))
		}
	})
}

func WithLogging(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		logger.InfoContext(r.Context(), "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func WithRecovery(next http.Handler, logger *slog.Logger, metrics *Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if recovered := recover(); recovered != nil {
				logger.ErrorContext(r.Context(), "handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", fmt.Sprint(recovered),
				)
				if metrics != nil {
					metrics.RecordPanic(r.Context(), route(r))
				}
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Wrap applies the middleware stack. Recovery sits next to the mux so recovered panics
// are counted under their route.
func Wrap(next http.Handler, logger *slog.Logger, metrics *Metrics) http.Handler {
	next = WithRecovery(next, logger, metrics)
	next = WithMetrics(next, metrics)
	next = WithTracing(next)
	return WithLogging(next, logger)
}
