//go:build !chaos

package chaos

import (
	"fmt"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/pkg/exceptions"
	"time"

	"go.uber.org/zap"
)

// disabledController is what production builds link. It cannot be
// switched on at runtime; fault injection exists only in binaries
// compiled with the chaos tag.
type disabledController struct{}

func NewChaosController(_ *zap.Logger) contracts.ChaosController {
	return disabledController{}
}

func (disabledController) Enabled() bool { return false }

func (disabledController) InjectLatency(provider string, min, max, duration time.Duration) error {
	return exceptions.ErrChaosDisabled(fmt.Errorf("latency injection requested for provider %s on a production build", provider))
}

func (disabledController) InjectErrorRate(provider string, rate float64, duration time.Duration) error {
	return exceptions.ErrChaosDisabled(fmt.Errorf("error injection requested for provider %s on a production build", provider))
}

func (disabledController) ClearAll() {}

func (disabledController) Wrap(_ string, next contracts.EhrTransport) contracts.EhrTransport {
	return next
}
