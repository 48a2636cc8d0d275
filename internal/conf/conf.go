package conf

import "time"

// Bootstrap is the root configuration for the SignalGate service.
type Bootstrap struct {
	Server   *Server
	Data     *Data
	Dispatch *Dispatch
	Auth     *Auth
	Log      *Log
}

// Server holds transport configuration.
type Server struct {
	Http *ServerHTTP
}

// ServerHTTP configures the inbound HTTP server.
type ServerHTTP struct {
	Network string
	Addr    string
	Timeout time.Duration
}

// Data holds data layer configuration.
type Data struct {
	Redis *DataRedis
}

// DataRedis configures the optional Redis-backed throttle store.
// An empty Addr disables Redis and selects the in-memory store.
type DataRedis struct {
	Network      string
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Dispatch configures the delivery pipeline: webhook endpoint, retry
// policy, throttling windows and circuit breaker thresholds.
type Dispatch struct {
	// WebhookURL is the messaging endpoint. When empty, deliveries are
	// logged instead of sent (noop sender).
	WebhookURL string

	// RequestTimeout bounds each individual HTTP attempt.
	RequestTimeout time.Duration

	// Retry policy: delay = min(BaseDelay * 2^n, MaxDelay).
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration

	// DefaultCooldown applies to alert types without an entry in Cooldowns.
	DefaultCooldown time.Duration
	// Cooldowns maps alert_type to its cooldown window.
	Cooldowns map[string]time.Duration

	// DedupWindow is the global content-fingerprint deduplication window.
	DedupWindow time.Duration
	// MaxEntries caps stored throttle records before emergency eviction.
	MaxEntries int

	// Circuit breaker thresholds.
	FailureThreshold int
	RecoveryTimeout  time.Duration

	// Attempt history kept for the diagnostics endpoint.
	HistorySize int
	HistoryTTL  time.Duration
}

// MaxCooldown returns the largest configured cooldown window. Stale key
// records beyond this age can never suppress a send and are safe to evict.
func (d *Dispatch) MaxCooldown() time.Duration {
	max := d.DefaultCooldown
	for _, c := range d.Cooldowns {
		if c > max {
			max = c
		}
	}
	return max
}

// CooldownFor returns the cooldown window for an alert type.
func (d *Dispatch) CooldownFor(alertType string) time.Duration {
	if c, ok := d.Cooldowns[alertType]; ok && c > 0 {
		return c
	}
	return d.DefaultCooldown
}

// Auth holds inbound API authentication configuration.
type Auth struct {
	// Token is an optional static bearer token. Empty disables auth.
	Token string
}

// Log configures the zap logger.
type Log struct {
	Level      string
	Format     string
	Env        string
	OutputFile string
}
