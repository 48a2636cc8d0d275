// Package conf provides configuration management using Viper.
// It supports loading configuration from YAML files and environment variables,
// with CLI flag overrides.
package conf

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// NewBootstrap creates and initializes a Bootstrap configuration.
// It loads configuration from the specified config file path, applies defaults,
// and allows overrides from environment variables prefixed with SIGNALGATE_.
//
// Configuration priority: CLI flags > Environment variables > Config file > Defaults
//
// Commonly overridden environment variables:
//   - WEBHOOK_URL or SIGNALGATE_DISPATCH_WEBHOOK_URL: messaging endpoint URL
//   - REDIS_ADDR or SIGNALGATE_DATA_REDIS_ADDR: optional shared throttle store
//   - API_TOKEN or SIGNALGATE_AUTH_TOKEN: inbound API bearer token
func NewBootstrap(configPath string) (*Bootstrap, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Enable environment variable support with SIGNALGATE_ prefix
	v.SetEnvPrefix("SIGNALGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow direct environment variable names (without SIGNALGATE_ prefix) for compatibility
	_ = v.BindEnv("dispatch.webhook_url", "WEBHOOK_URL", "SIGNALGATE_DISPATCH_WEBHOOK_URL")
	_ = v.BindEnv("data.redis.addr", "REDIS_ADDR", "SIGNALGATE_DATA_REDIS_ADDR")
	_ = v.BindEnv("auth.token", "API_TOKEN", "SIGNALGATE_AUTH_TOKEN")

	// Load configuration file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// If config file is specified but not found, return error
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	cooldowns, err := parseCooldowns(v.GetStringMapString("dispatch.cooldowns"))
	if err != nil {
		return nil, err
	}

	// Parse configuration into Bootstrap structure
	bc := &Bootstrap{
		Server: &Server{
			Http: &ServerHTTP{
				Network: v.GetString("server.http.network"),
				Addr:    v.GetString("server.http.addr"),
				Timeout: v.GetDuration("server.http.timeout"),
			},
		},
		Data: &Data{
			Redis: &DataRedis{
				Network:      v.GetString("data.redis.network"),
				Addr:         v.GetString("data.redis.addr"),
				ReadTimeout:  v.GetDuration("data.redis.read_timeout"),
				WriteTimeout: v.GetDuration("data.redis.write_timeout"),
			},
		},
		Dispatch: &Dispatch{
			WebhookURL:       v.GetString("dispatch.webhook_url"),
			RequestTimeout:   v.GetDuration("dispatch.request_timeout"),
			MaxRetries:       v.GetInt("dispatch.max_retries"),
			BaseDelay:        v.GetDuration("dispatch.base_delay"),
			MaxDelay:         v.GetDuration("dispatch.max_delay"),
			DefaultCooldown:  v.GetDuration("dispatch.default_cooldown"),
			Cooldowns:        cooldowns,
			DedupWindow:      v.GetDuration("dispatch.dedup_window"),
			MaxEntries:       v.GetInt("dispatch.max_entries"),
			FailureThreshold: v.GetInt("dispatch.failure_threshold"),
			RecoveryTimeout:  v.GetDuration("dispatch.recovery_timeout"),
			HistorySize:      v.GetInt("dispatch.history_size"),
			HistoryTTL:       v.GetDuration("dispatch.history_ttl"),
		},
		Auth: &Auth{
			Token: v.GetString("auth.token"),
		},
		Log: &Log{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Env:        v.GetString("log.env"),
			OutputFile: v.GetString("log.output_file"),
		},
	}

	// Validate required fields
	if err := Validate(bc); err != nil {
		return nil, err
	}

	return bc, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.http.network", "tcp")
	v.SetDefault("server.http.addr", ":8080")
	v.SetDefault("server.http.timeout", 30*time.Second)

	// Data defaults
	// Note: data.redis.addr is empty by default; the in-memory throttle
	// store is used unless an address is configured.
	v.SetDefault("data.redis.network", "tcp")
	v.SetDefault("data.redis.addr", "")
	v.SetDefault("data.redis.read_timeout", 200*time.Millisecond)
	v.SetDefault("data.redis.write_timeout", 200*time.Millisecond)

	// Dispatch defaults
	v.SetDefault("dispatch.webhook_url", "")
	v.SetDefault("dispatch.request_timeout", 15*time.Second)
	v.SetDefault("dispatch.max_retries", 3)
	v.SetDefault("dispatch.base_delay", 1*time.Second)
	v.SetDefault("dispatch.max_delay", 60*time.Second)
	v.SetDefault("dispatch.default_cooldown", 60*time.Second)
	v.SetDefault("dispatch.cooldowns", map[string]string{
		"whale_trade":         "300s",
		"liquidation_cluster": "300s",
		"price_anomaly":       "120s",
		"system_health":       "60s",
	})
	v.SetDefault("dispatch.dedup_window", 300*time.Second)
	v.SetDefault("dispatch.max_entries", 10000)
	v.SetDefault("dispatch.failure_threshold", 5)
	v.SetDefault("dispatch.recovery_timeout", 60*time.Second)
	v.SetDefault("dispatch.history_size", 256)
	v.SetDefault("dispatch.history_ttl", 1*time.Hour)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// parseCooldowns converts the raw string map from Viper into durations.
func parseCooldowns(raw map[string]string) (map[string]time.Duration, error) {
	cooldowns := make(map[string]time.Duration, len(raw))
	for alertType, val := range raw {
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid cooldown for alert type %q: %w", alertType, err)
		}
		cooldowns[alertType] = d
	}
	return cooldowns, nil
}

// Validate checks that all required configuration fields are present and valid.
// It returns an error listing all invalid fields.
func Validate(bc *Bootstrap) error {
	var invalid []string

	if bc.Dispatch == nil {
		invalid = append(invalid, "dispatch")
	} else {
		if bc.Dispatch.MaxRetries <= 0 {
			invalid = append(invalid, "dispatch.max_retries (must be > 0)")
		}
		if bc.Dispatch.BaseDelay <= 0 {
			invalid = append(invalid, "dispatch.base_delay (must be > 0)")
		}
		if bc.Dispatch.MaxDelay < bc.Dispatch.BaseDelay {
			invalid = append(invalid, "dispatch.max_delay (must be >= base_delay)")
		}
		if bc.Dispatch.FailureThreshold <= 0 {
			invalid = append(invalid, "dispatch.failure_threshold (must be > 0)")
		}
		if bc.Dispatch.MaxEntries <= 0 {
			invalid = append(invalid, "dispatch.max_entries (must be > 0)")
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration fields: %s", strings.Join(invalid, ", "))
	}

	return nil
}
