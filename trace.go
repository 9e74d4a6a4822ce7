package kirara

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// spanRecorder wraps an OpenTelemetry span for the exchange pipeline. The
// zero value is a no-op, so the pipeline can record unconditionally
// whether or not tracing is enabled.
type spanRecorder struct {
	span trace.Span
}

// startClientSpan opens a client-kind span named "HTTP {method}" carrying
// the request method and full URL.
func startClientSpan(ctx context.Context, tracer trace.Tracer, method, url string) (context.Context, spanRecorder) {
	ctx, span := tracer.Start(ctx, "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", url),
		),
	)
	return ctx, spanRecorder{span: span}
}

// End ends the span.
func (s spanRecorder) End() {
	if s.span != nil {
		s.span.End()
	}
}

// RecordError records a transport or decode failure on the span.
func (s spanRecorder) RecordError(err error) {
	if s.span == nil {
		return
	}
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// RecordStatus records the response status code and marks 4xx/5xx
// responses as span errors.
func (s spanRecorder) RecordStatus(statusCode int) {
	if s.span == nil {
		return
	}
	s.span.SetAttributes(attribute.Int("http.response.status_code", statusCode))
	if statusCode >= 400 {
		s.span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
	}
}
