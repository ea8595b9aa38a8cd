package main

import (
	"context"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/delivery/http/controllers"
	"medbridge-service/internal/app/delivery/http/middlewares"
	"medbridge-service/internal/app/delivery/http/routers"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/app/services/audit"
	"medbridge-service/internal/app/services/chaos"
	"medbridge-service/internal/app/services/ehr"
	"medbridge-service/internal/app/services/policy"
	"medbridge-service/internal/app/services/providerhealth"
	"medbridge-service/internal/app/services/shared/archive"
	"medbridge-service/internal/app/services/shared/assertion"
	"medbridge-service/internal/app/services/shared/compliancequeue"
	"medbridge-service/internal/app/services/shared/locker"
	"medbridge-service/internal/app/services/shared/ratelimiter"
	sharedredis "medbridge-service/internal/app/services/shared/redis"
	"medbridge-service/internal/pkg/constvars"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

func bootstrapingTheApp(bootstrap *config.Bootstrap) error {
	internalConfig := bootstrap.InternalConfig
	zapLogger := bootstrap.Logger

	// Shared infrastructure
	redisRepository := sharedredis.NewRedisRepository(bootstrap.Redis)
	lockerService := locker.NewLockService(redisRepository, zapLogger)
	resourceLimiter := ratelimiter.NewResourceLimiter(redisRepository, zapLogger)

	// Audit
	auditRepository, err := audit.NewAuditMongoRepository(bootstrap.MongoDB)
	if err != nil {
		return err
	}
	compliancePublisher, err := compliancequeue.NewService(bootstrap.RabbitMQ, zapLogger)
	if err != nil {
		return err
	}
	auditArchiver := archive.NewService(bootstrap.Minio, bootstrap.DriverConfig.Minio.BucketName, zapLogger)
	auditService := audit.NewAuditUsecase(auditRepository, compliancePublisher, auditArchiver, zapLogger, internalConfig)

	// Policy
	flagStore := policy.NewFlagRedisStore(redisRepository)
	policyGate := policy.NewPolicyUsecase(flagStore, auditService, zapLogger)

	// Provider health
	healthRegistry := providerhealth.NewHealthRegistry(models.CircuitBreakerConfig{
		FailureRateThreshold: internalConfig.Breaker.FailureRateThreshold,
		MinimumSamples:       internalConfig.Breaker.MinimumSamples,
		WindowSize:           internalConfig.Breaker.WindowSize,
		OpenDuration:         internalConfig.Breaker.OpenDuration,
		HalfOpenTrials:       internalConfig.Breaker.HalfOpenTrials,
	}, auditService, zapLogger)

	// EHR
	chaosController := chaos.NewChaosController(zapLogger)
	assertionSigner, err := assertion.NewSigner(internalConfig, zapLogger)
	if err != nil {
		return err
	}
	httpClient := &http.Client{Timeout: internalConfig.EHR.RequestTimeout}
	// The token endpoint talks to the raw client; chaos only wraps the
	// FHIR path so injected faults exercise the breaker, not auth.
	tokenSource := ehr.NewTokenManager(assertionSigner, httpClient, zapLogger, internalConfig)
	fhirTransport := chaosController.Wrap(internalConfig.EHR.Provider, httpClient)
	ehrAdapter := ehr.NewEhrAdapter(healthRegistry, policyGate, auditService, tokenSource, fhirTransport, resourceLimiter, zapLogger, internalConfig)

	// Delivery
	mw := middlewares.NewMiddlewares(zapLogger, internalConfig)
	providerHealthController := controllers.NewProviderHealthController(zapLogger, healthRegistry)
	flagController := controllers.NewFlagController(zapLogger, policyGate)
	auditController := controllers.NewAuditController(zapLogger, auditService)
	ehrController := controllers.NewEhrController(zapLogger, ehrAdapter, internalConfig)
	chaosHTTPController := controllers.NewChaosController(zapLogger, chaosController)

	routers.SetupRoutes(
		bootstrap.Router,
		internalConfig,
		mw,
		providerHealthController,
		flagController,
		auditController,
		ehrController,
		chaosHTTPController,
	)

	// Scheduled jobs
	snapshotJob := providerhealth.NewSnapshotJob(healthRegistry, redisRepository, zapLogger)
	scheduler := cron.New()

	_, err = scheduler.AddFunc(internalConfig.Audit.PurgeCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		acquired, lockValue, err := lockerService.TryLock(ctx, constvars.RedisKeyPurgeLock, 10*time.Minute)
		if err != nil || !acquired {
			return
		}
		defer lockerService.Unlock(ctx, constvars.RedisKeyPurgeLock, lockValue)

		if _, err := auditService.PurgeExpired(ctx); err != nil {
			zapLogger.Error("scheduled audit purge failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	_, err = scheduler.AddFunc(internalConfig.Audit.SnapshotCronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := snapshotJob.Run(ctx); err != nil {
			zapLogger.Error("scheduled health snapshot failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}

	scheduler.Start()
	bootstrap.CronStop = func() { scheduler.Stop() }

	return nil
}
