package middlewares

import (
	"context"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"medbridge-service/internal/pkg/utils"
	"net/http"

	"go.uber.org/zap"
)

const adminActorID = "api-key-admin"

// AdminAPIKeyAuth protects the administrative surface: flag mutations,
// chaos controls, audit queries and purge. Only the bcrypt hash of the
// key is configured; the plaintext never lives in the process.
func (m *Middlewares) AdminAPIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(constvars.HeaderAPIKey)
		if apiKey == "" {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrAPIKeyRequired(nil))
			return
		}

		if !utils.CheckAPIKeyHash(apiKey, m.InternalConfig.App.SuperadminAPIKeyHash) {
			m.Log.Warn("admin API key rejected",
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrInvalidAPIKey(nil))
			return
		}

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_ACTOR_ID_KEY, adminActorID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
