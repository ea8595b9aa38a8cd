package ehr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/app/services/shared/ratelimiter"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/fhir_dto"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const (
	ehrWriteLimiterGroup = "ehr-write"
	maxResponseBytes     = 4 << 20
	terminalAuditTimeout = 5 * time.Second
)

// terminalAuditContext detaches the terminal audit append from the
// caller's deadline. A caller that gives up mid-call must still leave a
// terminal event behind, so the append gets its own short budget while
// keeping the request-scoped values.
func terminalAuditContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), terminalAuditTimeout)
}

type ehrAdapter struct {
	Registry        contracts.HealthRegistry
	PolicyGate      contracts.PolicyGate
	AuditService    contracts.AuditService
	TokenSource     contracts.TokenSource
	Transport       contracts.EhrTransport
	ResourceLimiter *ratelimiter.ResourceLimiter
	Log             *zap.Logger
	InternalConfig  *config.InternalConfig

	// sleep is the backoff hook for the read 5xx retry; tests replace it.
	sleep func(time.Duration)
}

var (
	ehrAdapterInstance contracts.EhrAdapter
	onceEhrAdapter     sync.Once
)

func NewEhrAdapter(
	registry contracts.HealthRegistry,
	policyGate contracts.PolicyGate,
	auditService contracts.AuditService,
	tokenSource contracts.TokenSource,
	transport contracts.EhrTransport,
	resourceLimiter *ratelimiter.ResourceLimiter,
	logger *zap.Logger,
	internalConfig *config.InternalConfig,
) contracts.EhrAdapter {
	onceEhrAdapter.Do(func() {
		ehrAdapterInstance = &ehrAdapter{
			Registry:        registry,
			PolicyGate:      policyGate,
			AuditService:    auditService,
			TokenSource:     tokenSource,
			Transport:       transport,
			ResourceLimiter: resourceLimiter,
			Log:             logger,
			InternalConfig:  internalConfig,
			sleep:           time.Sleep,
		}
	})
	return ehrAdapterInstance
}

func (a *ehrAdapter) ReadResource(ctx context.Context, request *models.FhirReadRequest) (*models.FhirResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	subject := request.ResourceType + "/" + request.ResourceID
	monitor := a.Registry.Monitor(request.Provider)

	if !monitor.AllowRequest(ctx) {
		if err := a.appendAudit(ctx, request.Provider, request.ActorID, constvars.AuditEventEhrReadRejected, subject, models.OutcomeProviderUnavailable, nil); err != nil {
			return nil, err
		}
		return &models.FhirResult{Outcome: models.OutcomeProviderUnavailable},
			exceptions.ErrEhrCircuitOpen(fmt.Errorf("circuit open for provider %s", request.Provider))
	}

	callCtx, cancel := context.WithTimeout(ctx, a.InternalConfig.EHR.RequestTimeout)
	defer cancel()

	result := a.exchange(callCtx, monitor, true, func(token string) (*http.Request, error) {
		endpoint := fmt.Sprintf("%s/%s/%s", strings.TrimRight(a.InternalConfig.EHR.BaseUrl, "/"), request.ResourceType, request.ResourceID)
		req, err := http.NewRequestWithContext(callCtx, constvars.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFHIRJSON)
		req.Header.Set(constvars.HeaderAuthorization, "Bearer "+token)
		return req, nil
	})
	result.ResourceID = request.ResourceID

	eventType := constvars.AuditEventEhrRead
	if result.Outcome != models.OutcomeSuccess {
		eventType = constvars.AuditEventEhrReadFailed
	}
	// An unaudited read fails the call even when the provider answered.
	auditCtx, auditCancel := terminalAuditContext(ctx)
	defer auditCancel()
	if err := a.appendAudit(auditCtx, request.Provider, request.ActorID, eventType, subject, result.Outcome, resultContext(result)); err != nil {
		return nil, err
	}

	if result.Outcome != models.OutcomeSuccess {
		a.Log.Warn("ehrAdapter.ReadResource provider exchange failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderKey, request.Provider),
			zap.String(constvars.LoggingOutcomeKey, string(result.Outcome)),
			zap.Int(constvars.LoggingStatusCodeKey, result.StatusCode),
		)
		return result, outcomeError(result.Outcome, fmt.Errorf("read %s returned status %d", subject, result.StatusCode))
	}
	return result, nil
}

func (a *ehrAdapter) WriteResource(ctx context.Context, request *models.FhirWriteRequest) (*models.FhirResult, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	subject := request.ResourceType + "/" + request.ResourceID
	if request.ResourceID == "" {
		subject = request.ResourceType
	}

	writeContext := map[string]string{
		constvars.AuditContextResourceType: request.ResourceType,
	}
	if request.IdempotencyKey != "" {
		writeContext[constvars.AuditContextIdempotencyKey] = request.IdempotencyKey
	}

	enabled, err := a.PolicyGate.IsEnabled(ctx, a.InternalConfig.EHR.WriteFlagKey, request.ActorID)
	if err != nil || !enabled {
		if auditErr := a.appendAudit(ctx, request.Provider, request.ActorID, constvars.AuditEventEhrWriteRejected, subject, models.OutcomePolicyDenied, writeContext); auditErr != nil {
			return nil, auditErr
		}
		return &models.FhirResult{Outcome: models.OutcomePolicyDenied},
			exceptions.ErrEhrPolicyDenied(fmt.Errorf("capability %s disabled for actor", a.InternalConfig.EHR.WriteFlagKey))
	}

	// Budget check runs before breaker admission: a throttled write never
	// reached the provider, so it must not hold a half-open trial slot.
	if retryAfter, throttled := a.writeThrottled(ctx, request.Provider); throttled {
		writeContext[constvars.AuditContextRetryAfter] = strconv.Itoa(int(retryAfter / time.Second))
		if auditErr := a.appendAudit(ctx, request.Provider, request.ActorID, constvars.AuditEventEhrWriteRejected, subject, models.OutcomeRateLimited, writeContext); auditErr != nil {
			return nil, auditErr
		}
		return &models.FhirResult{Outcome: models.OutcomeRateLimited, RetryAfter: retryAfter},
			exceptions.ErrEhrWriteThrottled(fmt.Errorf("write budget exhausted for provider %s", request.Provider))
	}

	monitor := a.Registry.Monitor(request.Provider)
	if !monitor.AllowRequest(ctx) {
		if auditErr := a.appendAudit(ctx, request.Provider, request.ActorID, constvars.AuditEventEhrWriteRejected, subject, models.OutcomeProviderUnavailable, writeContext); auditErr != nil {
			return nil, auditErr
		}
		return &models.FhirResult{Outcome: models.OutcomeProviderUnavailable},
			exceptions.ErrEhrCircuitOpen(fmt.Errorf("circuit open for provider %s", request.Provider))
	}

	// The attempt is recorded before any bytes leave the process, so a
	// crash mid-call still leaves a trace of the mutation intent.
	if auditErr := a.appendAudit(ctx, request.Provider, request.ActorID, constvars.AuditEventEhrWriteAttempted, subject, models.OutcomeSuccess, writeContext); auditErr != nil {
		monitor.ReleaseTrial()
		return nil, auditErr
	}

	callCtx, cancel := context.WithTimeout(ctx, a.InternalConfig.EHR.RequestTimeout)
	defer cancel()

	result := a.exchange(callCtx, monitor, false, func(token string) (*http.Request, error) {
		base := strings.TrimRight(a.InternalConfig.EHR.BaseUrl, "/")
		method := constvars.MethodPost
		endpoint := fmt.Sprintf("%s/%s", base, request.ResourceType)
		if request.ResourceID != "" {
			method = constvars.MethodPut
			endpoint = fmt.Sprintf("%s/%s/%s", base, request.ResourceType, request.ResourceID)
		}
		req, err := http.NewRequestWithContext(callCtx, method, endpoint, bytes.NewReader(request.Body))
		if err != nil {
			return nil, err
		}
		req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationFHIRJSON)
		req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationFHIRJSON)
		req.Header.Set(constvars.HeaderAuthorization, "Bearer "+token)
		if request.IfMatch != "" {
			req.Header.Set(constvars.HeaderIfMatch, request.IfMatch)
		}
		if request.IdempotencyKey != "" {
			req.Header.Set(constvars.HeaderIdempotencyKey, request.IdempotencyKey)
		}
		return req, nil
	})
	if result.ResourceID == "" {
		result.ResourceID = request.ResourceID
	}

	eventType := constvars.AuditEventEhrWriteSucceeded
	if result.Outcome != models.OutcomeSuccess {
		eventType = constvars.AuditEventEhrWriteFailed
	}
	for k, v := range resultContext(result) {
		writeContext[k] = v
	}
	auditCtx, auditCancel := terminalAuditContext(ctx)
	defer auditCancel()
	if auditErr := a.appendAudit(auditCtx, request.Provider, request.ActorID, eventType, subject, result.Outcome, writeContext); auditErr != nil {
		return nil, auditErr
	}

	if result.Outcome != models.OutcomeSuccess {
		a.Log.Warn("ehrAdapter.WriteResource provider exchange failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingProviderKey, request.Provider),
			zap.String(constvars.LoggingOutcomeKey, string(result.Outcome)),
			zap.Int(constvars.LoggingStatusCodeKey, result.StatusCode),
		)
		return result, outcomeError(result.Outcome, fmt.Errorf("write %s returned status %d", subject, result.StatusCode))
	}
	return result, nil
}

// exchange performs the HTTP round trip: at most one token refresh
// retry after a 401, and for reads only, at most one jittered retry
// after a 5xx. Every attempt that reaches the network reports to the
// monitor; each retry re-asks for admission so per-attempt outcomes and
// trial slots stay paired one-to-one. The caller has already been
// admitted for the first attempt, so an abort before the network must
// hand the slot back.
func (a *ehrAdapter) exchange(ctx context.Context, monitor contracts.ProviderHealthMonitor, isRead bool, build func(token string) (*http.Request, error)) *models.FhirResult {
	authRetried := false
	serverRetried := false

	for {
		token, err := a.TokenSource.Token(ctx)
		if err != nil {
			monitor.ReleaseTrial()
			return &models.FhirResult{Outcome: models.OutcomeAuthError}
		}

		req, err := build(token)
		if err != nil {
			monitor.ReleaseTrial()
			return &models.FhirResult{Outcome: models.OutcomeUnknown}
		}

		start := time.Now()
		resp, err := a.Transport.Do(req)
		latency := time.Since(start)

		if err != nil {
			kind := mapTransportError(ctx, err)
			monitor.RecordOutcome(ctx, !breakerFailure(kind), latency)
			if isRead && kind == models.OutcomeTransientServer && !serverRetried && monitor.AllowRequest(ctx) {
				serverRetried = true
				a.sleep(retryBackoff())
				continue
			}
			return &models.FhirResult{Outcome: kind}
		}

		result := a.decodeResponse(resp)
		monitor.RecordOutcome(ctx, !breakerFailure(result.Outcome), latency)

		if resp.StatusCode == constvars.StatusUnauthorized && !authRetried && monitor.AllowRequest(ctx) {
			authRetried = true
			a.TokenSource.Invalidate()
			continue
		}
		// A 412 is a real conflict answer from the provider; retrying
		// would risk a duplicate clinical order.
		if isRead && result.Outcome == models.OutcomeTransientServer && !serverRetried && monitor.AllowRequest(ctx) {
			serverRetried = true
			a.sleep(retryBackoff())
			continue
		}
		return result
	}
}

func (a *ehrAdapter) decodeResponse(resp *http.Response) *models.FhirResult {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))

	result := &models.FhirResult{
		Outcome:    mapStatusCode(resp.StatusCode),
		StatusCode: resp.StatusCode,
		ETag:       resp.Header.Get(constvars.HeaderETag),
	}
	if result.Outcome == models.OutcomeSuccess {
		result.Body = body
	} else if len(body) > 0 {
		var operationOutcome fhir_dto.OperationOutcome
		if err := json.Unmarshal(body, &operationOutcome); err == nil {
			if diagnostics := operationOutcome.FirstDiagnostics(); diagnostics != "" {
				a.Log.Debug("ehrAdapter.decodeResponse provider diagnostics",
					zap.Int(constvars.LoggingStatusCodeKey, resp.StatusCode),
					zap.String("diagnostics", diagnostics),
				)
			}
		}
	}
	if location := resp.Header.Get(constvars.HeaderLocation); location != "" {
		result.ResourceID = lastPathSegment(location)
	}
	if result.Outcome == models.OutcomeRateLimited {
		if secs, err := strconv.Atoi(resp.Header.Get(constvars.HeaderRetryAfter)); err == nil && secs > 0 {
			result.RetryAfter = time.Duration(secs) * time.Second
		}
	}
	return result
}

func (a *ehrAdapter) writeThrottled(ctx context.Context, provider string) (time.Duration, bool) {
	cfg := a.InternalConfig.EHR
	if a.ResourceLimiter == nil || cfg.WriteThrottleMax <= 0 {
		return 0, false
	}
	out, err := a.ResourceLimiter.ApplyResourceLimiter(ctx, &ratelimiter.ApplyResourceLimiterInput{
		ResourceName:      provider,
		LimiterGroupName:  ehrWriteLimiterGroup,
		WindowDurationSec: cfg.WriteThrottleWindowSec,
		MaxQuota:          cfg.WriteThrottleMax,
	})
	if err != nil {
		// Budget state unknown; let the provider's own limiter decide.
		return 0, false
	}
	if !out.Allowed {
		return time.Duration(out.RetryAfterSecs) * time.Second, true
	}
	return 0, false
}

func (a *ehrAdapter) appendAudit(ctx context.Context, provider, actor, eventType, subject string, kind models.OutcomeKind, extra map[string]string) error {
	outcome := models.AuditOutcome{Success: kind == models.OutcomeSuccess}
	if !outcome.Success {
		outcome.ErrorKind = kind
	}
	_, err := a.AuditService.Append(ctx, &models.AuditEvent{
		Provider: provider,
		Actor:    actor,
		Type:     eventType,
		Subject:  subject,
		Outcome:  outcome,
		Context:  extra,
	})
	if err != nil {
		requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
		a.Log.Error("ehrAdapter.appendAudit refused, failing call",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingEventTypeKey, eventType),
			zap.Error(err),
		)
	}
	return err
}

func resultContext(result *models.FhirResult) map[string]string {
	ctx := map[string]string{
		constvars.AuditContextStatusCode: strconv.Itoa(result.StatusCode),
	}
	if result.RetryAfter > 0 {
		ctx[constvars.AuditContextRetryAfter] = strconv.Itoa(int(result.RetryAfter / time.Second))
	}
	return ctx
}

func retryBackoff() time.Duration {
	return 100*time.Millisecond + time.Duration(rand.Intn(200))*time.Millisecond
}

// lastPathSegment extracts the resource id from a Location header,
// tolerating the /_history/<version> suffix providers append.
func lastPathSegment(location string) string {
	trimmed := strings.TrimRight(location, "/")
	if i := strings.Index(trimmed, "/_history/"); i >= 0 {
		trimmed = trimmed[:i]
	}
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
