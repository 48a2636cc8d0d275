package log

import (
	"bytes"
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// createTestLogger builds a helper whose output is captured in a buffer.
func createTestLogger() (*LogHelper, *bytes.Buffer) {
	buf := &bytes.Buffer{}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:  "msg",
		LevelKey:    "level",
		TimeKey:     "time",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(buf),
		zapcore.DebugLevel,
	)

	zapLogger := zap.New(core)
	kratosLogger := NewKratosAdapter(zapLogger)
	helper := NewLogHelper(kratosLogger)

	return helper, buf
}

func TestNewLogHelper(t *testing.T) {
	zapLogger := zap.NewNop()
	kratosLogger := NewKratosAdapter(zapLogger)
	helper := NewLogHelper(kratosLogger)

	if helper == nil {
		t.Fatal("NewLogHelper returned nil")
	}
}

func TestLogHelper_Dispatch(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Dispatch("alert delivered", "key", "whale_trade:BTCUSDT:warning")

	output := buf.String()
	if output == "" {
		t.Error("Dispatch log produced no output")
	}

	if !contains(output, "dispatch") {
		t.Error("Dispatch log missing 'dispatch' type field")
	}
	if !contains(output, "alert delivered") {
		t.Error("Dispatch log missing message")
	}
}

func TestLogHelper_Throttle(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Throttle("alert throttled", "key", "system_health::info")

	output := buf.String()
	if output == "" {
		t.Error("Throttle log produced no output")
	}

	if !contains(output, "throttle") {
		t.Error("Throttle log missing 'throttle' type field")
	}
}

func TestLogHelper_Circuit(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Circuit("circuit breaker tripped", "failures", 5)

	output := buf.String()
	if output == "" {
		t.Error("Circuit log produced no output")
	}

	if !contains(output, "circuit") {
		t.Error("Circuit log missing 'circuit' type field")
	}
}

func TestLogHelper_Webhook(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Webhook("webhook delivery attempt completed", "status", 200)

	output := buf.String()
	if output == "" {
		t.Error("Webhook log produced no output")
	}

	if !contains(output, "webhook") {
		t.Error("Webhook log missing 'webhook' type field")
	}
}

func TestLogHelper_Startup(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Startup("using shared Redis throttle store")

	output := buf.String()
	if output == "" {
		t.Error("Startup log produced no output")
	}

	if !contains(output, "startup") {
		t.Error("Startup log missing 'startup' type field")
	}
}

func TestLogHelper_Request(t *testing.T) {
	helper, buf := createTestLogger()

	helper.Request("POST", "/v1/alerts", 200, 150)

	output := buf.String()
	if output == "" {
		t.Error("Request log produced no output")
	}

	if !contains(output, "POST") {
		t.Error("Request log missing method")
	}
	if !contains(output, "200") {
		t.Error("Request log missing status code")
	}
}

func TestLogHelper_RequestWithContext(t *testing.T) {
	helper, buf := createTestLogger()

	ctx := WithRequestContext(context.Background(), "req-abc123", "")
	helper.RequestWithContext(ctx, "GET", "/v1/stats", 200, 42)

	output := buf.String()
	if output == "" {
		t.Error("RequestWithContext log produced no output")
	}

	if !contains(output, "req-abc123") {
		t.Error("RequestWithContext log missing request ID")
	}
	if !contains(output, "/v1/stats") {
		t.Error("RequestWithContext log missing URL")
	}
}

func TestLogHelper_RequestWithContext_SlowRequest(t *testing.T) {
	helper, buf := createTestLogger()

	ctx := WithRequestContext(context.Background(), "req-slow01", "")
	helper.RequestWithContext(ctx, "POST", "/v1/alerts", 200, 2500)

	output := buf.String()
	if !contains(output, "slow_request") {
		t.Error("slow request above threshold was not flagged")
	}
}

func TestLogHelper_AllTypes(t *testing.T) {
	// Every typed method must be callable without panicking
	helper, _ := createTestLogger()

	helper.Dispatch("alert delivered")
	helper.Throttle("alert throttled")
	helper.Circuit("circuit breaker tripped")
	helper.Webhook("attempt completed")
	helper.Startup("service started")
}

// contains checks whether s contains substr
func contains(s, substr string) bool {
	return len(s) >= len(substr) && (s == substr || len(s) > len(substr) && containsSubstring(s, substr))
}

func containsSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
