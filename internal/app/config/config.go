package config

import (
	"medbridge-service/internal/pkg/utils"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	godotenv.Load()
}

func NewDriverConfig() *DriverConfig {
	return &DriverConfig{
		MongoDB: MongoDB{
			Port:     utils.GetEnvString("MONGODB_PORT", "27017"),
			Host:     utils.GetEnvString("MONGODB_HOST", "localhost"),
			DbName:   utils.GetEnvString("MONGODB_DB_NAME", "medbridge"),
			Username: utils.GetEnvString("MONGODB_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("MONGODB_PASSWORD", "defaultPassword"),
		},
		Redis: Redis{
			Host:     utils.GetEnvString("REDIS_HOST", "localhost"),
			Port:     utils.GetEnvString("REDIS_PORT", "6379"),
			Password: utils.GetEnvString("REDIS_PASSWORD", ""),
		},
		Logger: Logger{
			Level:               utils.GetEnvString("LOGGER_LEVEL", "debug"),
			OutputFileName:      utils.GetEnvString("LOGGER_OUTPUT_FILENAME", "logger.log"),
			OutputErrorFileName: utils.GetEnvString("LOGGER_OUTPUT_ERROR_FILENAME", "logger_error.log"),
		},
		RabbitMQ: RabbitMQ{
			Port:     utils.GetEnvString("RABBITMQ_PORT", "5672"),
			Host:     utils.GetEnvString("RABBITMQ_HOST", "localhost"),
			Username: utils.GetEnvString("RABBITMQ_USERNAME", "defaultUsername"),
			Password: utils.GetEnvString("RABBITMQ_PASSWORD", "defaultPassword"),
		},
		Minio: Minio{
			Port:       utils.GetEnvString("MINIO_PORT", "9000"),
			Host:       utils.GetEnvString("MINIO_HOST", "localhost"),
			Username:   utils.GetEnvString("MINIO_USERNAME", "defaultUsername"),
			Password:   utils.GetEnvString("MINIO_PASSWORD", "defaultPassword"),
			BucketName: utils.GetEnvString("MINIO_BUCKET_NAME", "medbridge-audit-archive"),
			UseSSL:     utils.GetEnvBool("MINIO_USE_SSL", false),
		},
	}
}

func NewInternalConfig() *InternalConfig {
	return &InternalConfig{
		App: App{
			Env:                      utils.GetEnvString("APP_ENV", "development"),
			Port:                     utils.GetEnvString("APP_PORT", ":8080"),
			Version:                  utils.GetEnvString("APP_VERSION", "v1"),
			Address:                  utils.GetEnvString("APP_ADDRESS", "localhost"),
			EndpointPrefix:           utils.GetEnvString("APP_ENDPOINT_PREFIX", "api"),
			MaxRequests:              utils.GetEnvInt("APP_MAX_REQUEST", 50),
			ShutdownTimeoutInSeconds: utils.GetEnvInt("APP_SHUTDOWN_TIMEOUT", 10),
			SuperadminAPIKeyHash:     utils.GetEnvString("APP_SUPERADMIN_API_KEY_HASH", ""),
		},
		EHR: AppEHR{
			Provider:               utils.GetEnvString("EHR_PROVIDER", "epic"),
			BaseUrl:                utils.GetEnvString("EHR_FHIR_BASE_URL", "http://localhost:5555/fhir"),
			TokenUrl:               utils.GetEnvString("EHR_TOKEN_URL", "http://localhost:5555/oauth2/token"),
			ClientID:               utils.GetEnvString("EHR_CLIENT_ID", ""),
			PrivateKeyPEM:          utils.GetEnvString("EHR_CLIENT_PRIVATE_KEY", ""),
			JWTAlg:                 utils.GetEnvString("EHR_CLIENT_JWT_ALG", "RS256"),
			Scope:                  utils.GetEnvString("EHR_OAUTH_SCOPE", "system/*.readwrite"),
			RequestTimeout:         utils.GetEnvDuration("EHR_REQUEST_TIMEOUT", 8*time.Second),
			WriteFlagKey:           utils.GetEnvString("EHR_WRITE_FLAG_KEY", "epic_fhir_write"),
			WriteThrottleWindowSec: utils.GetEnvInt("EHR_WRITE_THROTTLE_WINDOW_SECONDS", 0),
			WriteThrottleMax:       utils.GetEnvInt("EHR_WRITE_THROTTLE_MAX", 0),
		},
		Breaker: AppBreaker{
			FailureRateThreshold: utils.GetEnvFloat("BREAKER_FAILURE_RATE_THRESHOLD", 0.5),
			MinimumSamples:       utils.GetEnvInt("BREAKER_MINIMUM_SAMPLES", 5),
			WindowSize:           utils.GetEnvInt("BREAKER_WINDOW_SIZE", 50),
			OpenDuration:         utils.GetEnvDuration("BREAKER_OPEN_DURATION", 60*time.Second),
			HalfOpenTrials:       utils.GetEnvInt("BREAKER_HALF_OPEN_TRIALS", 1),
		},
		Audit: AppAudit{
			RetentionYears:   utils.GetEnvInt("AUDIT_RETENTION_YEARS", 7),
			DefaultPageSize:  utils.GetEnvInt("AUDIT_DEFAULT_PAGE_SIZE", 100),
			PurgeBatchSize:   utils.GetEnvInt("AUDIT_PURGE_BATCH_SIZE", 1000),
			ArchivePrefix:    utils.GetEnvString("AUDIT_ARCHIVE_PREFIX", "audit"),
			PurgeCronSpec:    utils.GetEnvString("AUDIT_PURGE_CRON", "0 3 * * *"),
			SnapshotCronSpec: utils.GetEnvString("HEALTH_SNAPSHOT_CRON", "@every 30s"),
		},
	}
}
