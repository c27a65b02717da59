package telemetry

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer of business spans
const TracerName = "accounting"

// SpanOption configures a business span
type SpanOption func(*[]attribute.KeyValue)

// WithAttribute adds an attribute to the span
func WithAttribute(key string, value interface{}) SpanOption {
	return func(attrs *[]attribute.KeyValue) {
		*attrs = append(*attrs, toAttribute(key, value))
	}
}

// WithTenant tags the span with the tenant and, when known, the company
func WithTenant(tenantID uuid.UUID, companyID uuid.UUID) SpanOption {
	return func(attrs *[]attribute.KeyValue) {
		*attrs = append(*attrs, attribute.String("tenant.id", tenantID.String()))
		if companyID != uuid.Nil {
			*attrs = append(*attrs, attribute.String("company.id", companyID.String()))
		}
	}
}

// StartSpan starts an internal span named {service}.{method}. Callers must End it.
//
//	ctx, span := telemetry.StartSpan(ctx, "intercompany", "settle", telemetry.WithTenant(tenantID, uuid.Nil))
//	defer span.End()
func StartSpan(ctx context.Context, service, method string, opts ...SpanOption) (context.Context, trace.Span) {
	attrs := make([]attribute.KeyValue, 0, len(opts))
	for _, opt := range opts {
		opt(&attrs)
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...))
}

// End records err on the span, if any, and ends it
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// TraceID returns the trace ID in ctx, or "" outside a sampled trace
func TraceID(ctx context.Context) string {
	id := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}

func toAttribute(key string, value interface{}) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case fmt.Stringer:
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
