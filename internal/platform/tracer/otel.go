package tracer

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"kickoff/pkg/requestcontext"
)

const (
	InstrumentationName = "kickoff"

	attrRequestID = "http.request_id"
)

// OTelTracer adapts an OpenTelemetry tracer. Every span carries the request
// id found in the context.
type OTelTracer struct {
	tracer trace.Tracer
}

type OTelOption func(*otelConfig)

type otelConfig struct {
	provider trace.TracerProvider
}

// WithTracerProvider uses tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.provider = tp
	}
}

func NewOTel(opts ...OTelOption) *OTelTracer {
	cfg := otelConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.provider == nil {
		cfg.provider = otel.GetTracerProvider()
	}
	return &OTelTracer{tracer: cfg.provider.Tracer(InstrumentationName)}
}

func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	kv := toOTelAttributes(attrs)
	if id := requestcontext.RequestID(ctx); id != "" {
		kv = append(kv, attribute.String(attrRequestID, id))
	}
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(kv...))
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

// End marks the span failed for any error except a cancelled caller, which
// is recorded as an event only.
func (s *otelSpan) End(err error) {
	switch {
	case err == nil:
	case errors.Is(err, context.Canceled):
		s.span.AddEvent("canceled")
	default:
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s *otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(toOTelAttributes(attrs)...)
}

func (s *otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(toOTelAttributes(attrs)...))
}

func toOTelAttributes(attrs []Attribute) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs)+1)
	for _, a := range attrs {
		out = append(out, toOTelAttribute(a))
	}
	return out
}

func toOTelAttribute(a Attribute) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case []string:
		return attribute.StringSlice(a.Key, v)
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}

var _ Tracer = (*OTelTracer)(nil)
