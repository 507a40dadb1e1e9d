package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"kickoff/internal/platform/tracer"
	"kickoff/pkg/requestcontext"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanIntakeProcess, tracer.String(tracer.AttrFormID, "FORM123"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	assert.NotPanics(t, func() {
		span.SetAttributes(tracer.Bool(tracer.AttrEmailSent, true))
		span.AddEvent("stored")
		span.End(errors.New("boom"))
	})
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithTracerProvider(noop.NewTracerProvider()))
	ctx := requestcontext.WithRequestID(context.Background(), "req-1")

	ctx, span := tr.Start(ctx, tracer.SpanIntakeStore,
		tracer.String(tracer.AttrListID, "applicants"),
		tracer.Int64(tracer.AttrAnswerCount, 4),
		tracer.Float64("ratio", 0.5),
		tracer.Attribute{Key: "refs", Value: []string{"a", "b"}},
		tracer.Attribute{Key: "other", Value: struct{}{}},
	)
	require.NotNil(t, ctx)
	assert.NotPanics(t, func() {
		span.AddEvent("retry", tracer.Int64("attempt", 2))
		span.End(context.Canceled)
	})
}

func TestOTelTracerDefaultsToGlobalProvider(t *testing.T) {
	_, span := tracer.NewOTel().Start(context.Background(), tracer.SpanNewsletter)
	assert.NotPanics(t, func() { span.End(nil) })
}

func TestRecorder(t *testing.T) {
	rec := tracer.NewRecorder()

	_, span := rec.Start(context.Background(), tracer.SpanIntakeProcess, tracer.String(tracer.AttrFormID, "FORM123"))
	span.SetAttributes(tracer.String(tracer.AttrOutcome, "accepted"))
	span.AddEvent("stored")
	span.End(nil)

	got := rec.Find(tracer.SpanIntakeProcess)
	require.NotNil(t, got)
	assert.True(t, got.Ended)
	assert.NoError(t, got.Err)
	assert.Equal(t, "FORM123", got.Attrs[tracer.AttrFormID])
	assert.Equal(t, "accepted", got.Attrs[tracer.AttrOutcome])
	assert.Equal(t, []string{"stored"}, got.Events)
	assert.Nil(t, rec.Find("missing"))
	assert.Equal(t, 1, rec.Len())
}

func TestHashEmail(t *testing.T) {
	assert.Empty(t, tracer.HashEmail("  "))
	assert.Len(t, tracer.HashEmail("player@league.test"), 16)
	assert.Equal(t, tracer.HashEmail("Player@League.test "), tracer.HashEmail("player@league.test"),
		"hash is case and whitespace insensitive")
	assert.NotEqual(t, tracer.HashEmail("a@league.test"), tracer.HashEmail("b@league.test"))
}

func TestDuration(t *testing.T) {
	attr := tracer.Duration("latency", 150*time.Millisecond)
	assert.Equal(t, int64(150), attr.Value)
}
