package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracer returns a tracer for the given name
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			attribute.String("service.operation", operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// AddEvent adds an event to the span
func AddEvent(span trace.Span, name string, attrs ...attribute.KeyValue) {
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// BusinessMetrics holds custom business metrics
type BusinessMetrics struct {
	entryAdds       metric.Int64Counter
	binderPageViews metric.Int64Counter
	importRows      metric.Int64Counter
	authAttempts    metric.Int64Counter
}

// NewBusinessMetrics creates business metrics instruments
func NewBusinessMetrics() (*BusinessMetrics, error) {
	meter := otel.Meter(instrumentationName)

	entryAdds, err := meter.Int64Counter(
		"magiclibrary.collection.entry_adds",
		metric.WithDescription("Total number of collection entry additions"),
		metric.WithUnit("{entries}"),
	)
	if err != nil {
		return nil, err
	}

	binderPageViews, err := meter.Int64Counter(
		"magiclibrary.binder.page_views",
		metric.WithDescription("Total number of binder page renders"),
		metric.WithUnit("{pages}"),
	)
	if err != nil {
		return nil, err
	}

	importRows, err := meter.Int64Counter(
		"magiclibrary.bulk.import_rows",
		metric.WithDescription("Total number of CSV rows processed by imports"),
		metric.WithUnit("{rows}"),
	)
	if err != nil {
		return nil, err
	}

	authAttempts, err := meter.Int64Counter(
		"magiclibrary.auth.attempts",
		metric.WithDescription("Total number of authentication attempts"),
		metric.WithUnit("{attempts}"),
	)
	if err != nil {
		return nil, err
	}

	return &BusinessMetrics{
		entryAdds:       entryAdds,
		binderPageViews: binderPageViews,
		importRows:      importRows,
		authAttempts:    authAttempts,
	}, nil
}

// RecordEntryAdd records a collection entry addition
func (m *BusinessMetrics) RecordEntryAdd(ctx context.Context, userID string, merged bool) {
	attrs := []attribute.KeyValue{
		attribute.String("user_id", userID),
		attribute.Bool("merged", merged),
	}
	m.entryAdds.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordBinderPageView records a binder page render
func (m *BusinessMetrics) RecordBinderPageView(ctx context.Context, containerID int64, fillRow bool) {
	attrs := []attribute.KeyValue{
		attribute.Int64("container_id", containerID),
		attribute.Bool("fill_row", fillRow),
	}
	m.binderPageViews.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordImportRows records the outcome of a CSV import
func (m *BusinessMetrics) RecordImportRows(ctx context.Context, imported, failed int) {
	m.importRows.Add(ctx, int64(imported), metric.WithAttributes(attribute.Bool("success", true)))
	if failed > 0 {
		m.importRows.Add(ctx, int64(failed), metric.WithAttributes(attribute.Bool("success", false)))
	}
}

// RecordAuthAttempt records an authentication attempt
func (m *BusinessMetrics) RecordAuthAttempt(ctx context.Context, method string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("auth_method", method),
		attribute.Bool("success", success),
	}
	m.authAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}
