//go:build !chaos

package chaos

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type markerTransport struct{}

func (markerTransport) Do(req *http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestDisabledControllerRefusesInjection(t *testing.T) {
	controller := NewChaosController(zap.NewNop())

	assert.False(t, controller.Enabled())
	assert.Error(t, controller.InjectLatency("epic", 10*time.Millisecond, 50*time.Millisecond, time.Minute))
	assert.Error(t, controller.InjectErrorRate("epic", 0.5, time.Minute))
	controller.ClearAll()
}

func TestDisabledControllerWrapIsPassthrough(t *testing.T) {
	controller := NewChaosController(zap.NewNop())
	next := markerTransport{}

	wrapped := controller.Wrap("epic", next)
	assert.Equal(t, next, wrapped)
}
