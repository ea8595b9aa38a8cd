package models

import (
	"time"

	"github.com/goccy/go-json"
)

// OutcomeKind is the closed taxonomy every provider exchange is mapped
// into. Callers branch on the kind, never on raw status codes.
type OutcomeKind string

const (
	OutcomeSuccess             OutcomeKind = "success"
	OutcomePolicyDenied        OutcomeKind = "policy_denied"
	OutcomeProviderUnavailable OutcomeKind = "provider_unavailable"
	OutcomeValidationError     OutcomeKind = "validation_error"
	OutcomeAuthError           OutcomeKind = "auth_error"
	OutcomeConflict            OutcomeKind = "conflict"
	OutcomeRateLimited         OutcomeKind = "rate_limited"
	OutcomeTransientServer     OutcomeKind = "transient_server_error"
	OutcomeTimeout             OutcomeKind = "timeout"
	OutcomeUnknown             OutcomeKind = "unknown_error"
)

// FhirReadRequest identifies a single resource read.
type FhirReadRequest struct {
	Provider     string
	ActorID      string
	ResourceType string
	ResourceID   string
}

// FhirWriteRequest carries one create or conditional update. The
// idempotency key is caller-supplied and threaded through to the
// provider unchanged; IfMatch, when set, makes the write conditional.
type FhirWriteRequest struct {
	Provider       string
	ActorID        string
	ResourceType   string
	ResourceID     string
	Body           json.RawMessage
	IdempotencyKey string
	IfMatch        string
}

// FhirResult is the call-scoped outcome of a read or write. Body is the
// provider response for successful reads; never persisted beyond the
// audit log's redacted summary.
type FhirResult struct {
	Outcome    OutcomeKind
	ResourceID string
	ETag       string
	StatusCode int
	RetryAfter time.Duration
	Body       json.RawMessage
}
