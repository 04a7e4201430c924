package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func installRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestStartServiceSpan(t *testing.T) {
	sr := installRecorder(t)

	ctx, span := StartServiceSpan(context.Background(), "LeadService", "Convert",
		WithAttribute("lead.id", "l-1"),
		WithAttribute("bulk.size", 3),
		WithSpanKind(trace.SpanKindServer))
	assert.NotEmpty(t, GetTraceID(ctx))
	SetAttributes(span, "tenant.id", "t-1", "dangling")
	SetOK(span)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "LeadService.Convert", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Equal(t, codes.Ok, ended[0].Status().Code)

	attrs := attrMap(ended[0].Attributes())
	assert.Equal(t, "l-1", attrs["lead.id"].AsString())
	assert.Equal(t, int64(3), attrs["bulk.size"].AsInt64())
	assert.Equal(t, "t-1", attrs["tenant.id"].AsString())
	assert.NotContains(t, attrs, "dangling")
}

func TestRecordError(t *testing.T) {
	sr := installRecorder(t)

	_, span := StartSpan(context.Background(), "provider.call")
	RecordError(span, nil)
	RecordError(span, errors.New("quota exceeded"))
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "quota exceeded", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	assert.Empty(t, GetTraceID(context.Background()))
}

type stringerID string

func (s stringerID) String() string { return "id:" + string(s) }

func TestToAttribute(t *testing.T) {
	assert.Equal(t, attribute.BOOL, toAttribute("k", true).Value.Type())
	assert.Equal(t, attribute.FLOAT64, toAttribute("k", 1.5).Value.Type())
	assert.Equal(t, attribute.INT64, toAttribute("k", int64(9)).Value.Type())
	assert.Equal(t, []string{"a", "b"}, toAttribute("k", []string{"a", "b"}).Value.AsStringSlice())
	assert.Equal(t, "id:x", toAttribute("k", stringerID("x")).Value.AsString())
	assert.Equal(t, "{1}", toAttribute("k", struct{ N int }{1}).Value.AsString())
}
