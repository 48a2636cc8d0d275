package model

import "time"

// Webhook payload field limits enforced before sending.
// These match the messaging endpoint's documented maximums.
const (
	MaxContentLength    = 2000
	MaxEmbedTitleLength = 256
	MaxEmbedDescription = 4096
)

// WebhookPayload is the JSON body posted to the messaging endpoint.
// Only the first embed is used by the endpoint; senders truncate
// oversized fields rather than rejecting the payload.
type WebhookPayload struct {
	Content string  `json:"content"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed is optional rich content attached to a webhook message.
type Embed struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Color       int    `json:"color,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// DeliveryResponse is the classified outcome of a single HTTP call.
// RetryAfter is the endpoint's rate-limit hint (zero when absent).
type DeliveryResponse struct {
	StatusCode int
	RetryAfter time.Duration
}

// DeliveryAttempt is the ephemeral record of one HTTP call. It is consumed
// immediately to drive retry decisions and kept only in the bounded
// in-memory history for diagnostics; it is never persisted.
type DeliveryAttempt struct {
	Attempt    int           `json:"attempt"`
	StatusCode int           `json:"status_code,omitempty"`
	Error      string        `json:"error,omitempty"`
	Success    bool          `json:"success"`
	Duration   time.Duration `json:"duration"`
	Timestamp  time.Time     `json:"timestamp"`
}

// CircuitStateName is the printable name of a breaker state.
type CircuitStateName string

const (
	CircuitClosed   CircuitStateName = "closed"
	CircuitOpen     CircuitStateName = "open"
	CircuitHalfOpen CircuitStateName = "half_open"
)

// CircuitSnapshot is a point-in-time view of the circuit breaker,
// exposed on the stats endpoint.
type CircuitSnapshot struct {
	State       CircuitStateName `json:"state"`
	Failures    int              `json:"failures"`
	LastFailure *time.Time       `json:"last_failure,omitempty"`
}
