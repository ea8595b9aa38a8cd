package constvars

// Validation messages, mapped by validator tag.
var CustomValidationErrorMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lt":       "must be less than %s",
	"lte":      "must be less than or equal to %s",
	"oneof":    "must be one of [%s]",
	"uuid":     "must be a valid UUID",
}

// Tags that require parameter substitution
var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"gt":    true,
	"gte":   true,
	"lt":    true,
	"lte":   true,
	"oneof": true,
}

// Error messages for clients
const (
	ErrClientCannotProcessRequest          = "failed to process your request"
	ErrClientSomethingWrongWithApplication = "there is something wrong with the application"
	ErrClientServerLongRespond             = "the app taking too long to respond"
	ErrClientNotAuthorized                 = "you can't access this feature"
	ErrClientEhrUnavailable                = "EHR temporarily unavailable, using cached context"
	ErrClientEhrConflict                   = "the clinical record changed while you were editing, please review and retry"
	ErrClientEhrValidation                 = "the clinical system rejected the request, please correct and resubmit"
	ErrClientEhrRateLimited                = "the clinical system is busy, please retry later"
	ErrClientFlagNotFound                  = "feature flag not found"
	ErrClientChaosDisabled                 = "fault injection is not available in this build"
)

// Error messages for developers
const (
	ErrDevInvalidInput         = "invalid input"
	ErrDevValidationFailed     = "request validation failed"
	ErrDevCannotParseJSON      = "cannot parse JSON"
	ErrDevCannotMarshalJSON    = "cannot marshal JSON"
	ErrDevCreateHTTPRequest    = "failed to create HTTP request"
	ErrDevSendHTTPRequest      = "failed to send HTTP request"
	ErrDevDecodeResponse       = "failed to decode response body"
	ErrDevMissingRequestID     = "request ID not found in context"
	ErrDevUnauthorized         = "unauthorized access"
	ErrDevServerDeadlineExceed = "server deadline exceeded"

	// EHR adapter
	ErrDevEhrPolicyDenied    = "capability disabled by policy for this actor"
	ErrDevEhrCircuitOpen     = "provider circuit is open, call rejected before network"
	ErrDevEhrTokenRequest    = "failed to obtain provider access token"
	ErrDevEhrSignAssertion   = "failed to sign client assertion"
	ErrDevEhrConflict        = "conditional write precondition failed (ETag mismatch)"
	ErrDevEhrValidation      = "provider rejected the resource as invalid"
	ErrDevEhrAuth            = "provider rejected credentials after token refresh"
	ErrDevEhrRateLimited     = "provider rate limit exceeded"
	ErrDevEhrTransientServer = "provider returned a transient server error"
	ErrDevEhrTimeout         = "provider call timed out or was cancelled"
	ErrDevEhrUnknown         = "provider returned an unrecognized outcome"
	ErrDevEhrWriteThrottled  = "outbound write budget exhausted for provider"

	// Audit store
	ErrDevAuditAppend          = "failed to append audit event"
	ErrDevAuditQuery           = "failed to query audit events"
	ErrDevAuditChainBroken     = "audit hash chain verification failed"
	ErrDevAuditBadCursor       = "invalid audit pagination cursor"
	ErrDevAuditPurge           = "failed to purge expired audit events"
	ErrDevAuditArchive         = "failed to archive audit events to cold storage"
	ErrDevAuditPublish         = "failed to publish audit event to compliance stream"
	ErrDevAuditEventIncomplete = "audit event is missing required fields"

	// Policy gate
	ErrDevFlagNotFound     = "feature flag not found in store"
	ErrDevFlagStoreRead    = "failed to read flag state from store"
	ErrDevFlagStoreWrite   = "failed to write flag state to store"
	ErrDevFlagAuditRefused = "flag mutation aborted: audit append failed"

	// Chaos
	ErrDevChaosDisabled   = "chaos controller is compiled out of this build"
	ErrDevChaosBadRequest = "invalid chaos experiment parameters"

	// Redis
	ErrDevRedisSet       = "failed to set redis key"
	ErrDevRedisGet       = "failed to get redis key"
	ErrDevRedisDelete    = "failed to delete redis key"
	ErrDevRedisIncrement = "failed to increment redis key"

	// Mongo
	ErrDevDBFailedToInsertDocument   = "failed to insert document"
	ErrDevDBFailedToFindDocument     = "failed to find document"
	ErrDevDBFailedToIterateDocuments = "failed to iterate documents"
	ErrDevDBFailedToDeleteDocument   = "failed to delete document"
)
