//go:build chaos

package chaos

import (
	"context"
	"medbridge-service/internal/pkg/constvars"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingTransport struct {
	mu    sync.Mutex
	calls int
}

func (t *countingTransport) Do(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	t.mu.Unlock()
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func newTestController() (*chaosController, *time.Time) {
	now := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	controller := &chaosController{
		Log:   zap.NewNop(),
		plans: make(map[string]*faultPlan),
		now:   func() time.Time { return now },
	}
	return controller, &now
}

func chaosRequest(t *testing.T) *http.Request {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "https://ehr.example.com/fhir/Patient/p1", nil)
	require.NoError(t, err)
	return req
}

func TestFullErrorRateInjects503(t *testing.T) {
	controller, _ := newTestController()
	next := &countingTransport{}
	transport := controller.Wrap("epic", next)

	require.NoError(t, controller.InjectErrorRate("epic", 1.0, time.Minute))

	resp, err := transport.Do(chaosRequest(t))
	require.NoError(t, err)
	assert.Equal(t, constvars.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(constvars.HeaderChaosInjected))
	assert.Equal(t, 0, next.calls)
}

func TestZeroErrorRatePassesThrough(t *testing.T) {
	controller, _ := newTestController()
	next := &countingTransport{}
	transport := controller.Wrap("epic", next)

	require.NoError(t, controller.InjectErrorRate("epic", 0.0, time.Minute))

	resp, err := transport.Do(chaosRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, next.calls)
}

func TestPlanExpiryDisarmsFault(t *testing.T) {
	controller, now := newTestController()
	next := &countingTransport{}
	transport := controller.Wrap("epic", next)

	require.NoError(t, controller.InjectErrorRate("epic", 1.0, time.Minute))
	*now = now.Add(2 * time.Minute)

	resp, err := transport.Do(chaosRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, next.calls)
}

func TestFaultsAreProviderScoped(t *testing.T) {
	controller, _ := newTestController()
	next := &countingTransport{}
	transport := controller.Wrap("cerner", next)

	require.NoError(t, controller.InjectErrorRate("epic", 1.0, time.Minute))

	resp, err := transport.Do(chaosRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestClearAllDropsPlans(t *testing.T) {
	controller, _ := newTestController()
	next := &countingTransport{}
	transport := controller.Wrap("epic", next)

	require.NoError(t, controller.InjectErrorRate("epic", 1.0, time.Minute))
	controller.ClearAll()

	resp, err := transport.Do(chaosRequest(t))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLatencyInjectionHonorsContext(t *testing.T) {
	controller, _ := newTestController()
	next := &countingTransport{}
	transport := controller.Wrap("epic", next)

	require.NoError(t, controller.InjectLatency("epic", time.Second, 2*time.Second, time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ehr.example.com/fhir/Patient/p1", nil)
	require.NoError(t, err)

	_, err = transport.Do(req)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, next.calls)
}

func TestInjectionValidation(t *testing.T) {
	controller, _ := newTestController()

	assert.Error(t, controller.InjectErrorRate("epic", 1.5, time.Minute))
	assert.Error(t, controller.InjectErrorRate("epic", -0.1, time.Minute))
	assert.Error(t, controller.InjectErrorRate("epic", 0.5, 0))
	assert.Error(t, controller.InjectLatency("epic", 50*time.Millisecond, 10*time.Millisecond, time.Minute))
	assert.Error(t, controller.InjectLatency("epic", -time.Millisecond, time.Millisecond, time.Minute))
}
