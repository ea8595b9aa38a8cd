//go:build chaos

package chaos

import (
	"fmt"
	"math/rand"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// faultPlan is the active injection for one provider. Expired plans are
// ignored and lazily dropped.
type faultPlan struct {
	latencyMin time.Duration
	latencyMax time.Duration
	errorRate  float64
	expiresAt  time.Time
}

type chaosController struct {
	Log *zap.Logger

	mu    sync.Mutex
	plans map[string]*faultPlan

	now func() time.Time
}

// NewChaosController returns the live fault injector. This constructor
// only exists in binaries built with the chaos tag.
func NewChaosController(logger *zap.Logger) contracts.ChaosController {
	return &chaosController{
		Log:   logger,
		plans: make(map[string]*faultPlan),
		now:   time.Now,
	}
}

func (c *chaosController) Enabled() bool { return true }

func (c *chaosController) InjectLatency(provider string, min, max, duration time.Duration) error {
	if min < 0 || max < min || duration <= 0 {
		return exceptions.ErrInputValidation(fmt.Errorf("invalid latency injection bounds min=%s max=%s duration=%s", min, max, duration))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	plan := c.planFor(provider)
	plan.latencyMin = min
	plan.latencyMax = max
	plan.expiresAt = c.now().Add(duration)

	c.Log.Warn("chaosController.InjectLatency armed",
		zap.String(constvars.LoggingProviderKey, provider),
		zap.Duration("min", min),
		zap.Duration("max", max),
		zap.Time("expires_at", plan.expiresAt),
	)
	return nil
}

func (c *chaosController) InjectErrorRate(provider string, rate float64, duration time.Duration) error {
	if rate < 0 || rate > 1 || duration <= 0 {
		return exceptions.ErrInputValidation(fmt.Errorf("invalid error injection rate=%f duration=%s", rate, duration))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	plan := c.planFor(provider)
	plan.errorRate = rate
	plan.expiresAt = c.now().Add(duration)

	c.Log.Warn("chaosController.InjectErrorRate armed",
		zap.String(constvars.LoggingProviderKey, provider),
		zap.Float64("rate", rate),
		zap.Time("expires_at", plan.expiresAt),
	)
	return nil
}

func (c *chaosController) ClearAll() {
	c.mu.Lock()
	c.plans = make(map[string]*faultPlan)
	c.mu.Unlock()
	c.Log.Warn("chaosController.ClearAll all fault plans dropped")
}

func (c *chaosController) planFor(provider string) *faultPlan {
	plan, ok := c.plans[provider]
	if !ok {
		plan = &faultPlan{}
		c.plans[provider] = plan
	}
	return plan
}

// activePlan returns a copy of the provider plan when unexpired.
func (c *chaosController) activePlan(provider string) (faultPlan, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	plan, ok := c.plans[provider]
	if !ok {
		return faultPlan{}, false
	}
	if c.now().After(plan.expiresAt) {
		delete(c.plans, provider)
		return faultPlan{}, false
	}
	return *plan, true
}

func (c *chaosController) Wrap(provider string, next contracts.EhrTransport) contracts.EhrTransport {
	return &chaosTransport{controller: c, provider: provider, next: next}
}

// chaosTransport decorates the outbound transport with the armed
// faults. Injected responses carry X-Chaos-Injected so they are never
// mistaken for real provider answers in logs or captures.
type chaosTransport struct {
	controller *chaosController
	provider   string
	next       contracts.EhrTransport
}

func (t *chaosTransport) Do(req *http.Request) (*http.Response, error) {
	plan, ok := t.controller.activePlan(t.provider)
	if !ok {
		return t.next.Do(req)
	}

	if plan.latencyMax > 0 {
		delay := plan.latencyMin
		if spread := plan.latencyMax - plan.latencyMin; spread > 0 {
			delay += time.Duration(rand.Int63n(int64(spread)))
		}
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}

	if plan.errorRate > 0 && rand.Float64() < plan.errorRate {
		resp := &http.Response{
			StatusCode: constvars.StatusServiceUnavailable,
			Status:     http.StatusText(constvars.StatusServiceUnavailable),
			Header:     http.Header{},
			Body:       http.NoBody,
			Request:    req,
		}
		resp.Header.Set(constvars.HeaderChaosInjected, "true")
		return resp, nil
	}

	return t.next.Do(req)
}
