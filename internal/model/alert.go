package model

// AlertLevel is the severity of an alert.
type AlertLevel string

const (
	LevelInfo     AlertLevel = "info"
	LevelWarning  AlertLevel = "warning"
	LevelError    AlertLevel = "error"
	LevelCritical AlertLevel = "critical"
)

// Valid reports whether the level is one of the known severities.
func (l AlertLevel) Valid() bool {
	switch l {
	case LevelInfo, LevelWarning, LevelError, LevelCritical:
		return true
	}
	return false
}

// AlertRequest is an incoming alert submitted by a producer.
// AlertType classifies the recurring category (e.g. "whale_trade",
// "liquidation_cluster", "system_health"); Subject optionally narrows it
// to a single instrument or component (e.g. "BTCUSDT").
type AlertRequest struct {
	Level     AlertLevel `json:"level"`
	Message   string     `json:"message"`
	AlertType string     `json:"alert_type"`
	Subject   string     `json:"subject,omitempty"`
}

// DispatchOutcome describes how the pipeline disposed of an alert.
type DispatchOutcome string

const (
	OutcomeSent        DispatchOutcome = "sent"
	OutcomeThrottled   DispatchOutcome = "throttled"
	OutcomeFailed      DispatchOutcome = "failed"
	OutcomeCircuitOpen DispatchOutcome = "circuit_open"
)

// DispatchResult is the terminal result of one alert request.
// Error carries the diagnostic for throttled/failed outcomes; it is a
// message, not a raised error - the pipeline never panics into producers.
type DispatchResult struct {
	Outcome  DispatchOutcome
	Key      string
	Attempts int
	Error    string
}

// Success reports whether delivery was attempted and succeeded.
func (r *DispatchResult) Success() bool {
	return r.Outcome == OutcomeSent
}

// DispatchStats holds aggregate dispatcher counters.
type DispatchStats struct {
	TotalSent      uint64  `json:"total_sent"`
	TotalThrottled uint64  `json:"total_throttled"`
	TotalFailed    uint64  `json:"total_failed"`
	SuccessRate    float64 `json:"success_rate"`
}
