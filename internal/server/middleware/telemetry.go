package middleware

import (
	"fmt"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelmetric "go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Telemetry records a server span and a request duration histogram for each
// request. Providers come from internal/telemetry/otel; with no OTLP endpoint
// configured they are no-ops and so is this middleware.
func Telemetry(tracer oteltrace.Tracer, meter otelmetric.Meter) func(http.Handler) http.Handler {
	duration, err := meter.Float64Histogram(
		"http.server.request.duration",
		otelmetric.WithUnit("ms"),
		otelmetric.WithDescription("HTTP request duration in milliseconds"),
	)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				oteltrace.WithSpanKind(oteltrace.SpanKindServer),
				oteltrace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			if err == nil {
				duration.Record(ctx, float64(time.Since(start).Milliseconds()),
					otelmetric.WithAttributes(
						attribute.String("http.request.method", r.Method),
						attribute.Int("http.response.status_code", status),
					),
				)
			}
		})
	}
}
