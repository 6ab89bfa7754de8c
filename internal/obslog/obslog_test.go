package obslog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStartOpReturnsNoopSpanWithoutProvider(t *testing.T) {
	ctx, span := StartOp(context.Background(), "test.op")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsValid()) // no provider wired: noop span
	EndOp(span, nil)
}

func TestEndOpRecordsErrorWithoutPanicking(t *testing.T) {
	_, span := StartOp(context.Background(), "test.op")
	assert.NotPanics(t, func() { EndOp(span, errors.New("boom")) })
}

func TestLogfDoesNotPanicWhenDisabled(t *testing.T) {
	assert.NotPanics(t, func() { Logf("value=%d", 1) })
}
