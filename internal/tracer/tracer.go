// Package tracer wraps OpenTelemetry for statement execution. The default tracer does
// nothing.
package tracer

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanQuery    = "ormsql.query"
	SpanExec     = "ormsql.exec"
	SpanFlush    = "ormsql.flush"
	SpanSequence = "ormsql.sequence"
)

// Tracer starts spans.
type Tracer interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Span is one traced operation.
type Span interface {
	SetAttributes(attrs ...attribute.KeyValue)
	RecordError(err error)
	SetStatus(code codes.Code, description string)
	End()
}

// OrNoop returns t, or a NoopTracer when t is nil.
func OrNoop(t Tracer) Tracer {
	if t == nil {
		return NoopTracer{}
	}
	return t
}

// NoopTracer discards all spans.
type NoopTracer struct{}

// StartSpan returns ctx unchanged with a no-op span.
func (NoopTracer) StartSpan(ctx context.Context, _ string) (context.Context, Span) {
	return ctx, NoopSpan{}
}

// NoopSpan does nothing.
type NoopSpan struct{}

func (NoopSpan) SetAttributes(...attribute.KeyValue) {}
func (NoopSpan) RecordError(error)                   {}
func (NoopSpan) SetStatus(codes.Code, string)        {}
func (NoopSpan) End()                                {}

// OtelTracer adapts an OpenTelemetry tracer.
type OtelTracer struct {
	tracer trace.Tracer
}

// NewOtelTracer wraps tracer, which must not be nil.
func NewOtelTracer(tracer trace.Tracer) *OtelTracer {
	return &OtelTracer{tracer: tracer}
}

// StartSpan starts a client span.
func (t *OtelTracer) StartSpan(ctx context.Context, name string) (context.Context, Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))
	return ctx, &OtelSpan{span: span}
}

// OtelSpan wraps an OpenTelemetry span.
type OtelSpan struct {
	span trace.Span
}

func (s *OtelSpan) SetAttributes(attrs ...attribute.KeyValue) { s.span.SetAttributes(attrs...) }
func (s *OtelSpan) RecordError(err error)                     { s.span.RecordError(err) }
func (s *OtelSpan) SetStatus(code codes.Code, desc string)    { s.span.SetStatus(code, desc) }
func (s *OtelSpan) End()                                      { s.span.End() }

// Statement describes one executed statement for tracing. Params are already masked.
type Statement struct {
	SQL          string
	Params       []any
	Duration     time.Duration
	RowsAffected int64
	Err          error
	// System is the dictionary name, e.g. postgres.
	System    string
	Operation string
	Table     string
	// RowAction is insert, update or delete for flushed rows.
	RowAction string
}

// Record adds database semantic convention attributes for st to span and sets its status.
func Record(span Span, st *Statement) {
	op := st.Operation
	if op == "" {
		op = DetectOperation(st.SQL)
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system", st.System),
		attribute.String("db.statement", st.SQL),
		attribute.String("db.operation", op),
		attribute.Float64("db.duration_ms", float64(st.Duration.Microseconds())/1000.0),
	}
	if st.Table != "" {
		attrs = append(attrs, attribute.String("db.table", st.Table))
	}
	if st.RowAction != "" {
		attrs = append(attrs, attribute.String("db.row_action", st.RowAction))
	}
	if st.RowsAffected > 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", st.RowsAffected))
	}
	span.SetAttributes(attrs...)

	if st.Err != nil {
		span.RecordError(st.Err)
		span.SetStatus(codes.Error, st.Err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}

// DetectOperation returns the leading SQL verb: SELECT, INSERT, UPDATE, DELETE or UNKNOWN.
func DetectOperation(sql string) string {
	sql = strings.ToUpper(strings.TrimSpace(sql))
	switch {
	case strings.HasPrefix(sql, "SELECT"), strings.HasPrefix(sql, "WITH"), strings.HasPrefix(sql, "VALUES"):
		return "SELECT"
	case strings.HasPrefix(sql, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(sql, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(sql, "DELETE"):
		return "DELETE"
	}
	return "UNKNOWN"
}
