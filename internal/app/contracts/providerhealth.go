package contracts

import (
	"context"
	"medbridge-service/internal/app/models"
	"time"
)

// ProviderHealthMonitor tracks call outcomes for one external provider
// and gates admission through a circuit breaker. AllowRequest may
// transition Open to HalfOpen when the cool-down has elapsed; in
// HalfOpen it consumes one trial slot per admitted call, which
// RecordOutcome releases. An admitted call that aborts before any bytes
// reach the provider must call ReleaseTrial instead, or the slot would
// stay consumed forever.
type ProviderHealthMonitor interface {
	AllowRequest(ctx context.Context) bool
	RecordOutcome(ctx context.Context, success bool, latency time.Duration)
	ReleaseTrial()
	Status() models.ProviderStatus
}

// HealthRegistry hands out the per-provider monitor instances.
type HealthRegistry interface {
	Monitor(providerID string) ProviderHealthMonitor
	Statuses() []models.ProviderStatus
}
