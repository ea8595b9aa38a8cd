package providerhealth

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/pkg/constvars"

	"go.uber.org/zap"
)

// SnapshotJob periodically publishes every provider's status to redis
// so dashboards and sibling instances can read health without hitting
// the service. Snapshots are advisory and expire on their own.
type SnapshotJob struct {
	Registry        contracts.HealthRegistry
	RedisRepository contracts.RedisRepository
	Log             *zap.Logger
}

func NewSnapshotJob(
	registry contracts.HealthRegistry,
	redisRepository contracts.RedisRepository,
	logger *zap.Logger,
) *SnapshotJob {
	return &SnapshotJob{
		Registry:        registry,
		RedisRepository: redisRepository,
		Log:             logger,
	}
}

func (j *SnapshotJob) Run(ctx context.Context) error {
	statuses := j.Registry.Statuses()
	if len(statuses) == 0 {
		return nil
	}
	if err := j.RedisRepository.Set(ctx, constvars.RedisKeyProviderStatus, statuses, constvars.RedisProviderStatusTTL); err != nil {
		j.Log.Error("snapshotJob.Run error writing provider status snapshot",
			zap.String(constvars.LoggingRedisKey, constvars.RedisKeyProviderStatus),
			zap.Error(err),
		)
		return err
	}
	return nil
}
