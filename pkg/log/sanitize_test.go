package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeField_Token(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "api token field",
			key:      "api_token",
			value:    "sk-1234567890abcdef",
			expected: "sk-1***********cdef",
		},
		{
			name:     "authorization header",
			key:      "authorization",
			value:    "Bearer abc123",
			expected: "Bear*****c123",
		},
		{
			name:     "short token",
			key:      "token",
			value:    "abc",
			expected: "a*c",
		},
		{
			name:     "empty value",
			key:      "token",
			value:    "",
			expected: "",
		},
		{
			name:     "TOKEN uppercase key",
			key:      "API_TOKEN",
			value:    "secretvalue1",
			expected: "secr****lue1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeField(tt.key, tt.value))
		})
	}
}

func TestSanitizeField_WebhookURL(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		value    string
		expected string
	}{
		{
			name:     "webhook url masks last path segment",
			key:      "webhook_url",
			value:    "https://discord.com/api/webhooks/123456/aBcDeFtoken12345",
			expected: "https://discord.com/api/webhooks/123456/aBcD********2345",
		},
		{
			name:     "endpoint key also matches",
			key:      "endpoint",
			value:    "https://hooks.example.com/services/secrettoken99",
			expected: "https://hooks.example.com/services/secr*****en99",
		},
		{
			name:     "bare host url untouched",
			key:      "webhook_url",
			value:    "https://example.com",
			expected: "https://example.com",
		},
		{
			name:     "trailing slash untouched",
			key:      "webhook_url",
			value:    "https://example.com/hooks/",
			expected: "https://example.com/hooks/",
		},
		{
			name:     "non-url webhook value falls through",
			key:      "webhook_name",
			value:    "alerts-prod",
			expected: "alerts-prod",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeField(tt.key, tt.value))
		})
	}
}

func TestSanitizeField_NonSensitive(t *testing.T) {
	assert.Equal(t, "whale_trade:BTCUSDT:warning", SanitizeField("key", "whale_trade:BTCUSDT:warning"))
	assert.Equal(t, "503", SanitizeField("status", "503"))
}
