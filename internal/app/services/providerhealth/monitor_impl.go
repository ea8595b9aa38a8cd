package providerhealth

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type outcome struct {
	success bool
	latency time.Duration
}

// monitor is the circuit breaker for one provider. All mutation happens
// under mu; Status readers take the lock-free snapshot pointer instead,
// so the operator endpoint never contends with the request path.
type monitor struct {
	providerID   string
	config       models.CircuitBreakerConfig
	AuditService contracts.AuditService
	Log          *zap.Logger

	mu                  sync.Mutex
	state               models.CircuitState
	window              []outcome
	windowPos           int
	windowLen           int
	consecutiveFailures int
	lastSuccessAt       *time.Time
	lastFailureAt       *time.Time
	openedAt            *time.Time
	trialsInFlight      int
	trialSuccesses      int

	snapshot atomic.Pointer[models.ProviderStatus]

	now func() time.Time
}

func newMonitor(providerID string, cfg models.CircuitBreakerConfig, auditService contracts.AuditService, logger *zap.Logger, now func() time.Time) *monitor {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 50
	}
	if cfg.HalfOpenTrials <= 0 {
		cfg.HalfOpenTrials = 1
	}
	m := &monitor{
		providerID:   providerID,
		config:       cfg,
		AuditService: auditService,
		Log:          logger,
		state:        models.CircuitClosed,
		window:       make([]outcome, cfg.WindowSize),
		now:          now,
	}
	m.publishSnapshot()
	return m
}

func (m *monitor) AllowRequest(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case models.CircuitClosed:
		return true
	case models.CircuitOpen:
		if m.openedAt == nil || m.now().Sub(*m.openedAt) < m.config.OpenDuration {
			return false
		}
		m.transition(ctx, models.CircuitHalfOpen)
		return m.admitTrial()
	case models.CircuitHalfOpen:
		return m.admitTrial()
	}
	return false
}

// admitTrial hands out one of the half-open trial slots; callers must
// hold mu.
func (m *monitor) admitTrial() bool {
	if m.trialsInFlight >= m.config.HalfOpenTrials {
		return false
	}
	m.trialsInFlight++
	m.publishSnapshot()
	return true
}

func (m *monitor) RecordOutcome(ctx context.Context, success bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if success {
		m.consecutiveFailures = 0
		m.lastSuccessAt = &now
	} else {
		m.consecutiveFailures++
		m.lastFailureAt = &now
	}

	switch m.state {
	case models.CircuitHalfOpen:
		if m.trialsInFlight > 0 {
			m.trialsInFlight--
		}
		if !success {
			// One failed trial reopens the circuit immediately.
			m.openCircuit(ctx, now)
			return
		}
		m.trialSuccesses++
		m.pushOutcome(success, latency)
		if m.trialSuccesses >= m.config.HalfOpenTrials {
			m.resetWindow()
			m.transition(ctx, models.CircuitClosed)
		} else {
			m.publishSnapshot()
		}
	case models.CircuitClosed:
		m.pushOutcome(success, latency)
		rate, samples := m.windowStats()
		if samples >= m.config.MinimumSamples && rate >= m.config.FailureRateThreshold {
			m.openCircuit(ctx, now)
			return
		}
		m.publishSnapshot()
	default:
		// Outcome from a call admitted before the circuit opened; the
		// window is stale once open, so only the snapshot moves.
		m.publishSnapshot()
	}
}

// ReleaseTrial returns a half-open trial slot for an admitted call that
// aborted before reaching the provider, so no outcome will ever be
// recorded for it. Outside HalfOpen it is a no-op.
func (m *monitor) ReleaseTrial() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != models.CircuitHalfOpen || m.trialsInFlight == 0 {
		return
	}
	m.trialsInFlight--
	m.publishSnapshot()
}

func (m *monitor) openCircuit(ctx context.Context, now time.Time) {
	m.openedAt = &now
	m.trialsInFlight = 0
	m.trialSuccesses = 0
	m.transition(ctx, models.CircuitOpen)
}

// transition changes state, refreshes the snapshot, and appends the
// matching circuit.* audit event. Callers must hold mu.
func (m *monitor) transition(ctx context.Context, next models.CircuitState) {
	prev := m.state
	if prev == next {
		return
	}
	m.state = next
	if next == models.CircuitHalfOpen {
		m.trialsInFlight = 0
		m.trialSuccesses = 0
	}
	if next == models.CircuitClosed {
		m.openedAt = nil
	}
	m.publishSnapshot()

	m.Log.Warn("providerHealth.transition circuit state changed",
		zap.String(constvars.LoggingProviderKey, m.providerID),
		zap.String(constvars.LoggingStateKey, string(next)),
		zap.String("previous_state", string(prev)),
	)

	var eventType string
	switch next {
	case models.CircuitOpen:
		eventType = constvars.AuditEventCircuitOpened
	case models.CircuitHalfOpen:
		eventType = constvars.AuditEventCircuitHalfOpen
	case models.CircuitClosed:
		eventType = constvars.AuditEventCircuitClosed
	}

	if m.AuditService != nil {
		// Transition events are operational telemetry, not PHI access;
		// an append failure is logged and the transition stands.
		_, err := m.AuditService.Append(ctx, &models.AuditEvent{
			Provider: m.providerID,
			Actor:    constvars.ActorSystem,
			Type:     eventType,
			Outcome:  models.AuditOutcome{Success: true},
			Context: map[string]string{
				constvars.AuditContextOldValue: string(prev),
				constvars.AuditContextNewValue: string(next),
			},
		})
		if err != nil {
			m.Log.Error("providerHealth.transition audit append failed",
				zap.String(constvars.LoggingProviderKey, m.providerID),
				zap.Error(err),
			)
		}
	}
}

func (m *monitor) pushOutcome(success bool, latency time.Duration) {
	m.window[m.windowPos] = outcome{success: success, latency: latency}
	m.windowPos = (m.windowPos + 1) % len(m.window)
	if m.windowLen < len(m.window) {
		m.windowLen++
	}
}

func (m *monitor) resetWindow() {
	m.windowPos = 0
	m.windowLen = 0
	m.consecutiveFailures = 0
}

func (m *monitor) windowStats() (failureRate float64, samples int) {
	if m.windowLen == 0 {
		return 0, 0
	}
	failures := 0
	for i := 0; i < m.windowLen; i++ {
		if !m.window[i].success {
			failures++
		}
	}
	return float64(failures) / float64(m.windowLen), m.windowLen
}

func (m *monitor) Status() models.ProviderStatus {
	return *m.snapshot.Load()
}

// publishSnapshot rebuilds the read-side status copy. Callers must hold
// mu (the constructor is the only exception, before the monitor leaks).
func (m *monitor) publishSnapshot() {
	rate, samples := m.windowStats()
	status := models.ProviderStatus{
		ProviderID:          m.providerID,
		State:               m.state,
		ConsecutiveFailures: m.consecutiveFailures,
		LastSuccessAt:       m.lastSuccessAt,
		LastFailureAt:       m.lastFailureAt,
		OpenedAt:            m.openedAt,
		ErrorRate:           rate,
		SampleCount:         samples,
		FallbackActive:      m.state != models.CircuitClosed,
	}
	status.LatencyP50, status.LatencyP95 = m.latencyPercentiles()
	m.snapshot.Store(&status)
}

func (m *monitor) latencyPercentiles() (p50, p95 time.Duration) {
	if m.windowLen == 0 {
		return 0, 0
	}
	latencies := make([]time.Duration, 0, m.windowLen)
	for i := 0; i < m.windowLen; i++ {
		latencies = append(latencies, m.window[i].latency)
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	idx := func(q float64) int {
		i := int(q * float64(len(latencies)-1))
		return i
	}
	return latencies[idx(0.50)], latencies[idx(0.95)]
}
