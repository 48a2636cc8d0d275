package log

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// contextKey is the private key type used to store the RequestContext
type contextKey string

const requestContextKey contextKey = "signalgate_request_context"

// RequestContext carries request tracing information across function and
// module boundaries via context.Context.
type RequestContext struct {
	RequestID string    // short 10-char request ID, e.g. mgrn0zfqda
	Producer  string    // authenticated producer name, if any
	StartTime time.Time // request start time
}

var (
	randSource = rand.NewSource(time.Now().UnixNano())
	randMutex  sync.Mutex
	// base36 charset (lowercase letters + digits)
	base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// GenerateRequestID generates a 10-character random request ID.
// base36 encoding keeps it short and avoids the overhead of a UUID.
func GenerateRequestID() string {
	randMutex.Lock()
	defer randMutex.Unlock()

	b := make([]byte, 10)
	for i := range b {
		b[i] = base36Chars[randSource.Int63()%36]
	}
	return string(b)
}

// WithRequestContext injects a RequestContext into the Context.
// Typically called by middleware at the start of a request.
func WithRequestContext(ctx context.Context, requestID, producer string) context.Context {
	reqCtx := &RequestContext{
		RequestID: requestID,
		Producer:  producer,
		StartTime: time.Now(),
	}
	return context.WithValue(ctx, requestContextKey, reqCtx)
}

// GetRequestContext extracts the RequestContext from the Context.
// Returns a default RequestContext when none is present, so callers
// never need a nil check.
func GetRequestContext(ctx context.Context) *RequestContext {
	if ctx == nil {
		return &RequestContext{RequestID: "unknown"}
	}

	if reqCtx, ok := ctx.Value(requestContextKey).(*RequestContext); ok {
		return reqCtx
	}

	return &RequestContext{RequestID: "unknown"}
}

// GetRequestID extracts the Request ID from the Context.
func GetRequestID(ctx context.Context) string {
	return GetRequestContext(ctx).RequestID
}
