package models

import "time"

type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// ProviderStatus is a point-in-time snapshot of one external provider's
// health, safe to serialize for operator endpoints. It is advisory only:
// the monitor rebuilds from a closed default on restart.
type ProviderStatus struct {
	ProviderID          string        `json:"provider_id"`
	State               CircuitState  `json:"state"`
	ConsecutiveFailures int           `json:"consecutive_failures"`
	LastSuccessAt       *time.Time    `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time    `json:"last_failure_at,omitempty"`
	OpenedAt            *time.Time    `json:"opened_at,omitempty"`
	ErrorRate           float64       `json:"error_rate"`
	SampleCount         int           `json:"sample_count"`
	LatencyP50          time.Duration `json:"latency_p50_ns"`
	LatencyP95          time.Duration `json:"latency_p95_ns"`
	FallbackActive      bool          `json:"fallback_active"`
}

// CircuitBreakerConfig is immutable per provider, loaded once at startup.
type CircuitBreakerConfig struct {
	FailureRateThreshold float64
	MinimumSamples       int
	WindowSize           int
	OpenDuration         time.Duration
	HalfOpenTrials       int
}
