package httpx

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"content-gateway/observability/logger"
	"content-gateway/observability/tracer"
)

// Trace abre o span do servidor, propagando o contexto W3C recebido, e
// injeta trace_id/span_id no logger.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
			),
		)
		defer span.End()

		if sc := span.SpanContext(); sc.IsValid() {
			ctx = logger.WithContext(ctx, logger.TraceIDKey, sc.TraceID().String())
			ctx = logger.WithContext(ctx, logger.SpanIDKey, sc.SpanID().String())
			w.Header().Set("X-Trace-ID", sc.TraceID().String())
		}

		sw := wrap(w)
		next.ServeHTTP(sw, r.WithContext(ctx))

		status := sw.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}
