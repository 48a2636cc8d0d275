package log

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRequestID(t *testing.T) {
	id1 := GenerateRequestID()
	id2 := GenerateRequestID()

	assert.Len(t, id1, 10)
	assert.NotEqual(t, id1, id2)
	for _, c := range id1 {
		assert.Contains(t, base36Chars, string(c))
	}
}

func TestRequestContext_RoundTrip(t *testing.T) {
	ctx := WithRequestContext(context.Background(), "abc123defg", "market-scanner")

	reqCtx := GetRequestContext(ctx)
	assert.Equal(t, "abc123defg", reqCtx.RequestID)
	assert.Equal(t, "market-scanner", reqCtx.Producer)
	assert.False(t, reqCtx.StartTime.IsZero())
	assert.Equal(t, "abc123defg", GetRequestID(ctx))
}

func TestGetRequestContext_Missing(t *testing.T) {
	reqCtx := GetRequestContext(context.Background())
	assert.Equal(t, "unknown", reqCtx.RequestID)

	assert.Equal(t, "unknown", GetRequestContext(nil).RequestID)
}
