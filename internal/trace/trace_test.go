package trace

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	require.NoError(t, InitWithConfig(Config{Enabled: false}))
	assert.False(t, Enabled())

	ctx, span := StartSpan(context.Background(), "noop")
	defer span.End()
	assert.False(t, span.SpanContext().IsValid())

	_, _, ok := GetTraceFields(ctx)
	assert.False(t, ok)
}

func TestSpansAreExported(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, InitWithConfig(Config{Enabled: true, SampleRatio: 1, Writer: &buf}))
	assert.True(t, Enabled())

	ctx, span := StartSpan(context.Background(), "deriv.proposal")
	Annotate(ctx, attribute.String("symbol", "R_100"))

	traceID, spanID, ok := GetTraceFields(ctx)
	require.True(t, ok)
	assert.Len(t, traceID, 32)
	assert.Len(t, spanID, 16)
	span.End()

	require.NoError(t, Shutdown(context.Background()))
	assert.False(t, Enabled())
	assert.Contains(t, buf.String(), "deriv.proposal")
	assert.Contains(t, buf.String(), "R_100")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_TRACING_ENABLED", "false")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")
	t.Setenv("TRACE_PRETTY", "false")

	cfg := LoadConfigFromEnv()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 0.25, cfg.SampleRatio)
	assert.False(t, cfg.PrettyPrint)

	t.Setenv("TRACE_SAMPLE_RATIO", "7")
	assert.Equal(t, 1.0, LoadConfigFromEnv().SampleRatio)
}
