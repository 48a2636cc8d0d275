package biz

import (
	"strconv"
	"strings"

	"SignalGate/internal/model"

	"github.com/cespare/xxhash/v2"
)

// Classifier derives the throttling key and content fingerprint from an
// incoming alert. Both operations are pure and total: identical inputs
// always yield identical outputs, and neither can fail.
type Classifier struct{}

// NewClassifier creates a new classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// MakeKey builds the throttling key for an alert category.
// The key identifies a category of recurring alert, not a single message:
// "whale_trade:BTCUSDT:warning" recurs every time a BTC whale trade fires.
func (c *Classifier) MakeKey(alertType, subject string, level model.AlertLevel) string {
	if subject != "" {
		return alertType + ":" + subject + ":" + string(level)
	}
	return alertType + ":" + string(level)
}

// Fingerprint hashes the normalized alert body for deduplication.
// Normalization is trim + lowercase, so formatting-only differences
// (padding, case) collapse onto one fingerprint while the key-based
// cooldown stays independent of content.
func (c *Classifier) Fingerprint(body string) string {
	normalized := strings.ToLower(strings.TrimSpace(body))
	return strconv.FormatUint(xxhash.Sum64String(normalized), 16)
}
