package constvars

const (
	LoggingRequestIDKey  = "request_id"
	LoggingProviderKey   = "provider"
	LoggingFlagKeyKey    = "flag_key"
	LoggingActorIDKey    = "actor_id"
	LoggingEventIDKey    = "event_id"
	LoggingEventTypeKey  = "event_type"
	LoggingResourceKey   = "resource_type"
	LoggingResourceIDKey = "resource_id"
	LoggingOutcomeKey    = "outcome"
	LoggingStateKey      = "circuit_state"
	LoggingDurationKey   = "duration"
	LoggingStatusCodeKey = "status_code"
	LoggingMethodKey     = "method"
	LoggingEndpointKey   = "endpoint"
	LoggingRemoteAddrKey = "remote_addr"
	LoggingUserAgentKey  = "user_agent"
	LoggingQueryKey      = "query"
	LoggingSuccessKey    = "success"
	LoggingRedisKey      = "redis_key"
	LoggingQueueKey      = "queue"
	LoggingObjectKey     = "object_key"
	LoggingCountKey      = "count"
)
