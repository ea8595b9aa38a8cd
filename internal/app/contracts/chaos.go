package contracts

import "time"

// ChaosController injects synthetic faults at the transport boundary.
// The production build compiles a controller that refuses activation;
// only builds carrying the chaos tag can inject anything.
type ChaosController interface {
	Enabled() bool
	InjectLatency(provider string, min, max, duration time.Duration) error
	InjectErrorRate(provider string, rate float64, duration time.Duration) error
	ClearAll()
	Wrap(provider string, next EhrTransport) EhrTransport
}
