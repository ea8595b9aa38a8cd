package ehr

import (
	"context"
	"errors"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/app/services/shared/ratelimiter"
	"medbridge-service/internal/app/services/shared/redis"
	"medbridge-service/internal/pkg/constvars"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubTokenSource struct {
	mu          sync.Mutex
	calls       int
	invalidates int
	fail        bool
}

func (s *stubTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", errors.New("token endpoint unreachable")
	}
	s.calls++
	return "test-access-token", nil
}

func (s *stubTokenSource) Invalidate() {
	s.mu.Lock()
	s.invalidates++
	s.mu.Unlock()
}

// fakeMonitor keeps the same slot ledger a half-open breaker does: an
// admission holds a slot until an outcome or a release hands it back.
type fakeMonitor struct {
	mu        sync.Mutex
	allow     bool
	maxTrials int // 0 means unlimited concurrent admissions
	inFlight  int
	admits    int
	releases  int
	outcomes  []bool
}

func (m *fakeMonitor) AllowRequest(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.allow {
		return false
	}
	if m.maxTrials > 0 && m.inFlight >= m.maxTrials {
		return false
	}
	m.inFlight++
	m.admits++
	return true
}

func (m *fakeMonitor) RecordOutcome(ctx context.Context, success bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, success)
	if m.inFlight > 0 {
		m.inFlight--
	}
}

func (m *fakeMonitor) ReleaseTrial() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	if m.inFlight > 0 {
		m.inFlight--
	}
}

func (m *fakeMonitor) Status() models.ProviderStatus { return models.ProviderStatus{} }

type fakeRegistry struct {
	monitor *fakeMonitor
}

func (r *fakeRegistry) Monitor(providerID string) contracts.ProviderHealthMonitor { return r.monitor }
func (r *fakeRegistry) Statuses() []models.ProviderStatus                         { return nil }

type stubPolicyGate struct {
	enabled bool
	err     error
}

func (g *stubPolicyGate) IsEnabled(ctx context.Context, flagKey, actorID string) (bool, error) {
	return g.enabled, g.err
}

func (g *stubPolicyGate) GetFlag(ctx context.Context, flagKey string) (*models.FlagState, error) {
	return nil, nil
}

func (g *stubPolicyGate) SetFlag(ctx context.Context, mutation *models.FlagMutation) (*models.FlagState, error) {
	return nil, nil
}

func (g *stubPolicyGate) SetUserOverride(ctx context.Context, mutation *models.OverrideMutation) (*models.FlagState, error) {
	return nil, nil
}

type recordingAuditService struct {
	mu       sync.Mutex
	events   []models.AuditEvent
	refuse   bool
	honorCtx bool // reject appends whose context is already done, like a real store would
}

func (s *recordingAuditService) Append(ctx context.Context, event *models.AuditEvent) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.honorCtx && ctx.Err() != nil {
		return "", ctx.Err()
	}
	if s.refuse {
		return "", errors.New("audit storage unavailable")
	}
	s.events = append(s.events, *event)
	return "evt-1", nil
}

func (s *recordingAuditService) Query(ctx context.Context, query *models.AuditQuery) (*models.AuditPage, error) {
	return &models.AuditPage{}, nil
}

func (s *recordingAuditService) AccountingOfDisclosures(ctx context.Context, subjectID, cursor string, limit int) (*models.AuditPage, error) {
	return &models.AuditPage{}, nil
}

func (s *recordingAuditService) VerifyIntegrity(ctx context.Context, provider string, fromSeq, toSeq int64) (bool, error) {
	return true, nil
}

func (s *recordingAuditService) PurgeExpired(ctx context.Context) (int64, error) { return 0, nil }

func (s *recordingAuditService) eventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	types := make([]string, 0, len(s.events))
	for _, event := range s.events {
		types = append(types, event.Type)
	}
	return types
}

type adapterFixture struct {
	adapter      *ehrAdapter
	server       *httptest.Server
	tokenSource  *stubTokenSource
	monitor      *fakeMonitor
	gate         *stubPolicyGate
	auditService *recordingAuditService
	hits         *int32
}

func newAdapterFixture(t *testing.T, handler http.HandlerFunc) *adapterFixture {
	t.Helper()
	var hits int32
	var hitsMu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsMu.Lock()
		hits++
		hitsMu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	fixture := &adapterFixture{
		server:       server,
		tokenSource:  &stubTokenSource{},
		monitor:      &fakeMonitor{allow: true},
		gate:         &stubPolicyGate{enabled: true},
		auditService: &recordingAuditService{},
		hits:         &hits,
	}
	fixture.adapter = &ehrAdapter{
		Registry:     &fakeRegistry{monitor: fixture.monitor},
		PolicyGate:   fixture.gate,
		AuditService: fixture.auditService,
		TokenSource:  fixture.tokenSource,
		Transport:    server.Client(),
		Log:          zap.NewNop(),
		InternalConfig: &config.InternalConfig{
			EHR: config.AppEHR{
				Provider:       "epic",
				BaseUrl:        server.URL,
				WriteFlagKey:   "ehr_writes_enabled",
				RequestTimeout: 2 * time.Second,
			},
		},
		sleep: func(time.Duration) {},
	}
	return fixture
}

func readRequest() *models.FhirReadRequest {
	return &models.FhirReadRequest{
		Provider:     "epic",
		ActorID:      "dr-lee",
		ResourceType: "Patient",
		ResourceID:   "p1",
	}
}

func writeRequest() *models.FhirWriteRequest {
	return &models.FhirWriteRequest{
		Provider:       "epic",
		ActorID:        "dr-lee",
		ResourceType:   "ServiceRequest",
		ResourceID:     "sr1",
		Body:           []byte(`{"resourceType":"ServiceRequest","id":"sr1"}`),
		IdempotencyKey: "idem-123",
		IfMatch:        `W/"3"`,
	}
}

func TestReadResourceSuccess(t *testing.T) {
	var gotAuth, gotAccept string
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get(constvars.HeaderAuthorization)
		gotAccept = r.Header.Get(constvars.HeaderAccept)
		assert.Equal(t, "/Patient/p1", r.URL.Path)
		w.Header().Set(constvars.HeaderETag, `W/"7"`)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	})

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, `W/"7"`, result.ETag)
	assert.Equal(t, "p1", result.ResourceID)
	assert.Contains(t, string(result.Body), "Patient")

	assert.Equal(t, "Bearer test-access-token", gotAuth)
	assert.Equal(t, constvars.MIMEApplicationFHIRJSON, gotAccept)

	assert.Equal(t, []string{constvars.AuditEventEhrRead}, fixture.auditService.eventTypes())
	assert.Equal(t, []bool{true}, fixture.monitor.outcomes)
	assert.Equal(t, "Patient/p1", fixture.auditService.events[0].Subject)
}

func TestReadResourceRetriesOnceOn5xx(t *testing.T) {
	var calls int
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	})

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, 2, calls)

	// Both attempts reached the provider, both count for the breaker, and
	// each one held its own admission.
	assert.Equal(t, []bool{false, true}, fixture.monitor.outcomes)
	assert.Equal(t, 2, fixture.monitor.admits)
	assert.Equal(t, 0, fixture.monitor.inFlight)
}

func TestReadResourcePersistent5xxStopsAfterOneRetry(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeTransientServer, result.Outcome)
	assert.Equal(t, int32(2), *fixture.hits)
	assert.Equal(t, []string{constvars.AuditEventEhrReadFailed}, fixture.auditService.eventTypes())
}

func TestReadResourceCircuitOpen(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fixture.monitor.allow = false

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeProviderUnavailable, result.Outcome)
	assert.Equal(t, int32(0), *fixture.hits)
	assert.Equal(t, []string{constvars.AuditEventEhrReadRejected}, fixture.auditService.eventTypes())
	assert.Empty(t, fixture.monitor.outcomes)
}

func TestReadResource401RefreshesTokenOnce(t *testing.T) {
	var calls int
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	})

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, fixture.tokenSource.invalidates)
}

func TestReadResourcePersistent401(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeAuthError, result.Outcome)
	assert.Equal(t, int32(2), *fixture.hits)
	assert.Equal(t, 1, fixture.tokenSource.invalidates)

	// Auth failures are the caller's problem, not provider health.
	assert.Equal(t, []bool{true, true}, fixture.monitor.outcomes)
}

func TestReadResourceTokenFailureSkipsNetwork(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fixture.tokenSource.fail = true

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeAuthError, result.Outcome)
	assert.Equal(t, int32(0), *fixture.hits)
	assert.Empty(t, fixture.monitor.outcomes)

	// The admitted slot was handed back, not left dangling.
	assert.Equal(t, 1, fixture.monitor.releases)
	assert.Equal(t, 0, fixture.monitor.inFlight)
}

func TestReadResourceTokenFailureFreesTrialSlot(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	})
	fixture.monitor.maxTrials = 1
	fixture.tokenSource.fail = true

	_, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)

	// The aborted call must not wedge a single-slot monitor: the next
	// call gets admitted and completes.
	fixture.tokenSource.fail = false
	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, int32(1), *fixture.hits)
	assert.Equal(t, 2, fixture.monitor.admits)
	assert.Equal(t, 0, fixture.monitor.inFlight)
}

func TestReadResourceRetryHoldsItsOwnAdmission(t *testing.T) {
	var calls int
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	})
	fixture.monitor.maxTrials = 1

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)

	// One admission per recorded attempt, with no slot left consumed.
	assert.Equal(t, len(fixture.monitor.outcomes), fixture.monitor.admits)
	assert.Equal(t, 0, fixture.monitor.inFlight)
}

func TestReadResourceRetryDeniedReturnsFirstAnswer(t *testing.T) {
	var fixture *adapterFixture
	fixture = newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		// The circuit flips while the first attempt is in flight, so the
		// retry must not be admitted.
		fixture.monitor.mu.Lock()
		fixture.monitor.allow = false
		fixture.monitor.mu.Unlock()
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeTransientServer, result.Outcome)
	assert.Equal(t, int32(1), *fixture.hits)
	assert.Equal(t, []bool{false}, fixture.monitor.outcomes)
}

func TestReadResourceAuditRefusalFailsCall(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"resourceType":"Patient","id":"p1"}`))
	})
	fixture.auditService.refuse = true

	result, err := fixture.adapter.ReadResource(context.Background(), readRequest())
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestWriteResourceSuccess(t *testing.T) {
	var gotMethod, gotIfMatch, gotIdempotency string
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotIfMatch = r.Header.Get(constvars.HeaderIfMatch)
		gotIdempotency = r.Header.Get(constvars.HeaderIdempotencyKey)
		assert.Equal(t, "/ServiceRequest/sr1", r.URL.Path)
		w.Header().Set(constvars.HeaderETag, `W/"4"`)
		w.WriteHeader(http.StatusOK)
	})

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, `W/"4"`, result.ETag)
	assert.Equal(t, "sr1", result.ResourceID)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, `W/"3"`, gotIfMatch)
	assert.Equal(t, "idem-123", gotIdempotency)

	assert.Equal(t, []string{
		constvars.AuditEventEhrWriteAttempted,
		constvars.AuditEventEhrWriteSucceeded,
	}, fixture.auditService.eventTypes())
	assert.Equal(t, "idem-123", fixture.auditService.events[0].Context[constvars.AuditContextIdempotencyKey])
}

func TestWriteResourceCreateUsesPostAndLocation(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/ServiceRequest", r.URL.Path)
		w.Header().Set(constvars.HeaderLocation, "https://ehr.example.com/fhir/ServiceRequest/sr9/_history/1")
		w.WriteHeader(http.StatusCreated)
	})

	request := writeRequest()
	request.ResourceID = ""
	result, err := fixture.adapter.WriteResource(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeSuccess, result.Outcome)
	assert.Equal(t, "sr9", result.ResourceID)
}

func TestWriteResourceConflictNeverRetried(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	})

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeConflict, result.Outcome)
	assert.Equal(t, int32(1), *fixture.hits)

	// A conflict is an answer, not a provider fault.
	assert.Equal(t, []bool{true}, fixture.monitor.outcomes)
	assert.Equal(t, []string{
		constvars.AuditEventEhrWriteAttempted,
		constvars.AuditEventEhrWriteFailed,
	}, fixture.auditService.eventTypes())
}

func TestWriteResource5xxNeverRetried(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeTransientServer, result.Outcome)
	assert.Equal(t, int32(1), *fixture.hits)
	assert.Equal(t, []bool{false}, fixture.monitor.outcomes)
}

func TestWriteResourceRateLimitedParsesRetryAfter(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(constvars.HeaderRetryAfter, "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeRateLimited, result.Outcome)
	assert.Equal(t, 30*time.Second, result.RetryAfter)

	last := fixture.auditService.events[len(fixture.auditService.events)-1]
	assert.Equal(t, "30", last.Context[constvars.AuditContextRetryAfter])
}

func TestWriteResourcePolicyDenied(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fixture.gate.enabled = false

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomePolicyDenied, result.Outcome)
	assert.Equal(t, int32(0), *fixture.hits)

	require.Len(t, fixture.auditService.events, 1)
	event := fixture.auditService.events[0]
	assert.Equal(t, constvars.AuditEventEhrWriteRejected, event.Type)
	assert.Equal(t, models.OutcomePolicyDenied, event.Outcome.ErrorKind)
}

func TestWriteResourcePolicyStoreErrorDenies(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fixture.gate.enabled = true
	fixture.gate.err = errors.New("flag store unreachable")

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomePolicyDenied, result.Outcome)
	assert.Equal(t, int32(0), *fixture.hits)
}

func TestWriteResourceCircuitOpen(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fixture.monitor.allow = false

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeProviderUnavailable, result.Outcome)
	assert.Equal(t, int32(0), *fixture.hits)
	assert.Equal(t, []string{constvars.AuditEventEhrWriteRejected}, fixture.auditService.eventTypes())
}

func TestWriteResourceThrottledByWriteBudget(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	miniServer := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: miniServer.Addr()})
	t.Cleanup(func() { client.Close() })
	fixture.adapter.ResourceLimiter = ratelimiter.NewResourceLimiter(redis.NewRedisRepository(client), zap.NewNop())
	fixture.adapter.InternalConfig.EHR.WriteThrottleMax = 1
	fixture.adapter.InternalConfig.EHR.WriteThrottleWindowSec = 60

	_, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	require.NoError(t, err)

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeRateLimited, result.Outcome)
	assert.Greater(t, result.RetryAfter, time.Duration(0))

	// Only the first write reached the provider.
	assert.Equal(t, int32(1), *fixture.hits)
	assert.Equal(t, []string{
		constvars.AuditEventEhrWriteAttempted,
		constvars.AuditEventEhrWriteSucceeded,
		constvars.AuditEventEhrWriteRejected,
	}, fixture.auditService.eventTypes())
}

func TestWriteResourceAttemptAuditRefusalFreesTrialSlot(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	fixture.auditService.refuse = true

	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, int32(0), *fixture.hits)

	// The call never left the process, so its admission came back.
	assert.Equal(t, 1, fixture.monitor.admits)
	assert.Equal(t, 1, fixture.monitor.releases)
	assert.Equal(t, 0, fixture.monitor.inFlight)
}

func TestWriteResourceThrottleCheckedBeforeBreaker(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	miniServer := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: miniServer.Addr()})
	t.Cleanup(func() { client.Close() })
	fixture.adapter.ResourceLimiter = ratelimiter.NewResourceLimiter(redis.NewRedisRepository(client), zap.NewNop())
	fixture.adapter.InternalConfig.EHR.WriteThrottleMax = 1
	fixture.adapter.InternalConfig.EHR.WriteThrottleWindowSec = 60

	_, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	require.NoError(t, err)

	// With the budget already spent, a throttled write is answered from
	// the budget alone and never asks the breaker for a slot.
	fixture.monitor.allow = false
	result, err := fixture.adapter.WriteResource(context.Background(), writeRequest())
	assert.Error(t, err)
	assert.Equal(t, models.OutcomeRateLimited, result.Outcome)
	assert.Equal(t, 1, fixture.monitor.admits)
}

func TestReadResourceCallerCancellationStillAudited(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(250 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	fixture.auditService.honorCtx = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := fixture.adapter.ReadResource(ctx, readRequest())
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.OutcomeTimeout, result.Outcome)

	// The caller gave up, but the terminal event still landed.
	assert.Equal(t, []string{constvars.AuditEventEhrReadFailed}, fixture.auditService.eventTypes())
	assert.Equal(t, models.OutcomeTimeout, fixture.auditService.events[0].Outcome.ErrorKind)
}

func TestWriteResourceCallerCancellationStillAudited(t *testing.T) {
	fixture := newAdapterFixture(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(250 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	})
	fixture.auditService.honorCtx = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := fixture.adapter.WriteResource(ctx, writeRequest())
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, models.OutcomeTimeout, result.Outcome)

	assert.Equal(t, []string{
		constvars.AuditEventEhrWriteAttempted,
		constvars.AuditEventEhrWriteFailed,
	}, fixture.auditService.eventTypes())
}

func TestMapStatusCode(t *testing.T) {
	cases := map[int]models.OutcomeKind{
		200: models.OutcomeSuccess,
		201: models.OutcomeSuccess,
		400: models.OutcomeValidationError,
		422: models.OutcomeValidationError,
		401: models.OutcomeAuthError,
		403: models.OutcomeAuthError,
		409: models.OutcomeConflict,
		412: models.OutcomeConflict,
		429: models.OutcomeRateLimited,
		500: models.OutcomeTransientServer,
		503: models.OutcomeTransientServer,
		404: models.OutcomeUnknown,
	}
	for statusCode, want := range cases {
		assert.Equal(t, want, mapStatusCode(statusCode), statusCode)
	}
}

func TestLastPathSegment(t *testing.T) {
	cases := map[string]string{
		"https://ehr.example.com/fhir/ServiceRequest/sr9":            "sr9",
		"https://ehr.example.com/fhir/ServiceRequest/sr9/_history/1": "sr9",
		"/ServiceRequest/sr9/":                                       "sr9",
		"sr9":                                                        "sr9",
	}
	for location, want := range cases {
		assert.Equal(t, want, lastPathSegment(location), location)
	}
}
