package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpanAndFinish(t *testing.T) {
	mt := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(mt)
	t.Cleanup(func() { opentracing.SetGlobalTracer(prev) })

	span, ctx := StartSpan(context.Background(), "scan.cycle", opentracing.Tags{"account": int64(7)})
	child, _ := StartSpan(ctx, "scan.symbol", nil)
	Finish(child, errors.New("boom"))
	Finish(span, nil)

	spans := mt.FinishedSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "scan.symbol", spans[0].OperationName)
	assert.Equal(t, true, spans[0].Tag("error"))
	assert.Equal(t, int64(7), spans[1].Tag("account"))
}

func TestInitTracerDisabled(t *testing.T) {
	tr, closer, err := InitTracer(Config{})
	require.NoError(t, err)
	closer()
	assert.IsType(t, opentracing.NoopTracer{}, tr)
}
