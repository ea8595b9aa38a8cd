package constvars

// Audit event types. The ehr.* events are the per-call trail, circuit.*
// mark breaker transitions, policy.* mark flag administration.
const (
	AuditEventEhrRead           = "ehr.read"
	AuditEventEhrReadRejected   = "ehr.read_rejected"
	AuditEventEhrReadFailed     = "ehr.read_failed"
	AuditEventEhrWriteAttempted = "ehr.write_attempted"
	AuditEventEhrWriteSucceeded = "ehr.write_succeeded"
	AuditEventEhrWriteFailed    = "ehr.write_failed"
	AuditEventEhrWriteRejected  = "ehr.write_rejected"

	AuditEventCircuitOpened   = "circuit.opened"
	AuditEventCircuitClosed   = "circuit.closed"
	AuditEventCircuitHalfOpen = "circuit.half_open"

	AuditEventPolicyFlagChanged = "policy.flag_changed"

	AuditEventAuditPurged = "audit.purged"
)

// AuditChainPlatform is the chain administrative events (flag changes,
// retention purges) are appended to when no EHR provider is involved.
const AuditChainPlatform = "platform"

const (
	AuditContextOldValue       = "old_value"
	AuditContextNewValue       = "new_value"
	AuditContextReason         = "reason"
	AuditContextResourceType   = "resource_type"
	AuditContextResourceID     = "resource_id"
	AuditContextIdempotencyKey = "idempotency_key"
	AuditContextDurationMs     = "duration_ms"
	AuditContextStatusCode     = "status_code"
	AuditContextRetryAfter     = "retry_after"
	AuditContextPurgedCount    = "purged_count"
	AuditContextArchiveObject  = "archive_object"
)
