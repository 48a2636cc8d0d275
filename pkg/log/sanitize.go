package log

import (
	"strings"
)

// SanitizeField checks if the key contains sensitive keywords and sanitizes the value
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	// Convert key to lowercase for case-insensitive matching
	lowerKey := strings.ToLower(key)

	// Webhook URLs embed a secret token in the path; mask it instead of
	// masking the whole URL so the host stays readable in logs.
	if strings.Contains(lowerKey, "webhook") || strings.Contains(lowerKey, "endpoint") {
		if strings.Contains(value, "://") {
			return sanitizeWebhookURL(value)
		}
	}

	// Check if key contains sensitive keywords
	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api-key",
		"token", "access_token", "refresh_token",
		"secret", "auth", "authorization",
		"credential", "private_key", "privatekey",
	}

	isSensitive := false
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			isSensitive = true
			break
		}
	}

	// Sanitize sensitive fields
	if isSensitive {
		return sanitizeToken(value)
	}

	return value
}

// sanitizeToken masks token/password values showing only first 4 and last 4 characters
func sanitizeToken(value string) string {
	if len(value) <= 8 {
		// For short strings, mask everything except first and last char
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	// For longer strings, show first 4 and last 4
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// sanitizeWebhookURL masks the final path segment of a webhook URL,
// which is where Discord-style endpoints carry the secret token.
func sanitizeWebhookURL(value string) string {
	idx := strings.LastIndex(value, "/")
	if idx < 0 || idx == len(value)-1 {
		return value
	}
	// Do not mask the scheme separator of bare host URLs
	if strings.HasSuffix(value[:idx+1], "://") {
		return value
	}
	return value[:idx+1] + sanitizeToken(value[idx+1:])
}
