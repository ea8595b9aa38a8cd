package constvars

const (
	// Generic messages
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
	ResponseError   = "error"

	// Provider health
	GetProviderHealthSuccessMessage = "get provider health successfully"

	// Feature flags
	GetFlagSuccessMessage         = "get feature flag successfully"
	SetFlagSuccessMessage         = "feature flag updated successfully"
	SetUserOverrideSuccessMessage = "per-user override updated successfully"

	// Audit
	QueryAuditSuccessMessage      = "get audit events successfully"
	GetDisclosuresSuccessMessage  = "get accounting of disclosures successfully"
	VerifyIntegritySuccessMessage = "audit integrity verified successfully"
	IntegrityBrokenWarningMessage = "audit integrity verification failed"
	PurgeExpiredSuccessMessage    = "expired audit events purged successfully"

	// EHR
	ReadResourceSuccessMessage  = "resource read successfully"
	WriteResourceSuccessMessage = "resource written successfully"

	// Chaos
	InjectLatencySuccessMessage   = "latency experiment started"
	InjectErrorRateSuccessMessage = "error-rate experiment started"
	ClearChaosSuccessMessage      = "all chaos experiments cleared"
)
