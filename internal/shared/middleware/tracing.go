package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	httpTracer             = otel.Tracer("finsync/http")
	httpMeter              = otel.Meter("finsync/http")
	httpRequestDuration, _ = httpMeter.Float64Histogram("finsync.http.route.duration",
		metric.WithDescription("Handler duration per matched route in seconds"),
		metric.WithUnit("s"),
	)
	httpRequestTotal, _ = httpMeter.Int64Counter("finsync.http.route.total",
		metric.WithDescription("Requests per matched route"),
	)
)

// Tracing wraps a ServeMux and names spans and metrics after the matched
// route pattern ("GET /api/accounts/{id}") rather than the raw path, so ids
// do not blow up metric cardinality.
func Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := httpTracer.Start(r.Context(), r.Method,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(attribute.String("http.method", r.Method)),
		)
		defer span.End()

		start := time.Now()
		wrapped := wrapResponseWriter(w)
		req := r.WithContext(ctx)
		next.ServeHTTP(wrapped, req)

		status := wrapped.status
		if status == 0 {
			status = http.StatusOK
		}

		route := req.Pattern
		if route == "" {
			route = "unmatched"
		}
		span.SetName(route)

		span.SetAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}

		attrs := metric.WithAttributes(
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)
		httpRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
		httpRequestTotal.Add(ctx, 1, attrs)
	})
}
