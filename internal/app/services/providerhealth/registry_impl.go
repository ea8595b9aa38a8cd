package providerhealth

import (
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type healthRegistry struct {
	Config       models.CircuitBreakerConfig
	AuditService contracts.AuditService
	Log          *zap.Logger

	mu       sync.Mutex
	monitors map[string]*monitor
}

var (
	healthRegistryInstance contracts.HealthRegistry
	onceHealthRegistry     sync.Once
)

func NewHealthRegistry(
	cfg models.CircuitBreakerConfig,
	auditService contracts.AuditService,
	logger *zap.Logger,
) contracts.HealthRegistry {
	onceHealthRegistry.Do(func() {
		healthRegistryInstance = &healthRegistry{
			Config:       cfg,
			AuditService: auditService,
			Log:          logger,
			monitors:     make(map[string]*monitor),
		}
	})
	return healthRegistryInstance
}

func (r *healthRegistry) Monitor(providerID string) contracts.ProviderHealthMonitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.monitors[providerID]
	if !ok {
		m = newMonitor(providerID, r.Config, r.AuditService, r.Log, time.Now)
		r.monitors[providerID] = m
	}
	return m
}

func (r *healthRegistry) Statuses() []models.ProviderStatus {
	r.mu.Lock()
	monitors := make([]*monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		monitors = append(monitors, m)
	}
	r.mu.Unlock()

	statuses := make([]models.ProviderStatus, 0, len(monitors))
	for _, m := range monitors {
		statuses = append(statuses, m.Status())
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ProviderID < statuses[j].ProviderID })
	return statuses
}
