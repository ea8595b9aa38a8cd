package constvars

import "time"

const (
	RedisKeyFlagPrefix       = "policy:flag:"
	RedisKeyProviderStatus   = "provider_health:status"
	RedisKeyEhrWriteThrottle = "ehr:write_throttle:"
	RedisKeyPurgeLock        = "lock:audit_purge"
	RedisKeySnapshotLock     = "lock:health_snapshot"
	RedisProviderStatusTTL   = 5 * time.Minute
	RedisFlagCacheTTL        = 5 * time.Second
	RedisFlagCacheSize       = 256
)
