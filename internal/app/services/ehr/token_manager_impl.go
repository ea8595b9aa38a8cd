package ehr

import (
	"context"
	"fmt"
	"io"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// refreshSkew renews tokens this long before their stated expiry so an
// in-flight request never carries a token that dies mid-call.
const refreshSkew = 60 * time.Second

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// tokenManager caches the provider bearer token and refreshes it behind
// a mutex: one refresh in flight, concurrent callers wait for its
// result.
type tokenManager struct {
	Signer         contracts.AssertionSigner
	Transport      contracts.EhrTransport
	Log            *zap.Logger
	InternalConfig *config.InternalConfig

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time

	now func() time.Time
}

func NewTokenManager(
	signer contracts.AssertionSigner,
	transport contracts.EhrTransport,
	logger *zap.Logger,
	internalConfig *config.InternalConfig,
) contracts.TokenSource {
	return &tokenManager{
		Signer:         signer,
		Transport:      transport,
		Log:            logger,
		InternalConfig: internalConfig,
		now:            time.Now,
	}
}

func (tm *tokenManager) Token(ctx context.Context) (string, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if tm.accessToken != "" && tm.now().Before(tm.expiresAt.Add(-refreshSkew)) {
		return tm.accessToken, nil
	}
	return tm.refresh(ctx)
}

func (tm *tokenManager) Invalidate() {
	tm.mu.Lock()
	tm.accessToken = ""
	tm.expiresAt = time.Time{}
	tm.mu.Unlock()
}

// refresh performs the client-credentials grant with a fresh signed
// assertion. Callers must hold mu.
func (tm *tokenManager) refresh(ctx context.Context) (string, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	assertion, err := tm.Signer.SignedAssertion(ctx)
	if err != nil {
		return "", exceptions.ErrEhrSignAssertion(err)
	}

	form := url.Values{}
	form.Set("grant_type", constvars.OAuthGrantClientCredentials)
	form.Set("client_assertion_type", constvars.OAuthClientAssertionType)
	form.Set("client_assertion", assertion)
	if scope := tm.InternalConfig.EHR.Scope; scope != "" {
		form.Set("scope", scope)
	}

	req, err := http.NewRequestWithContext(ctx, constvars.MethodPost, tm.InternalConfig.EHR.TokenUrl, strings.NewReader(form.Encode()))
	if err != nil {
		return "", exceptions.ErrEhrTokenRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationForm)
	req.Header.Set(constvars.HeaderAccept, constvars.MIMEApplicationJSON)

	resp, err := tm.Transport.Do(req)
	if err != nil {
		return "", exceptions.ErrEhrTokenRequest(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", exceptions.ErrEhrTokenRequest(err)
	}
	if resp.StatusCode != http.StatusOK {
		tm.Log.Error("tokenManager.refresh token endpoint rejected grant",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Int(constvars.LoggingStatusCodeKey, resp.StatusCode),
		)
		return "", exceptions.ErrEhrTokenRequest(fmt.Errorf("token endpoint returned status %d", resp.StatusCode))
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", exceptions.ErrEhrTokenRequest(err)
	}
	if parsed.AccessToken == "" || parsed.ExpiresIn <= 0 {
		return "", exceptions.ErrEhrTokenRequest(fmt.Errorf("token response missing access_token or expires_in"))
	}

	tm.accessToken = parsed.AccessToken
	tm.expiresAt = tm.now().Add(time.Duration(parsed.ExpiresIn) * time.Second)

	tm.Log.Info("tokenManager.refresh obtained new access token",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Time("expires_at", tm.expiresAt),
	)
	return tm.accessToken, nil
}
