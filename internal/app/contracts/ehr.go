package contracts

import (
	"context"
	"medbridge-service/internal/app/models"
	"net/http"
)

// EhrAdapter translates domain intents into FHIR exchanges with the
// external provider. Results carry the closed outcome taxonomy; the
// adapter never silently retries a write.
type EhrAdapter interface {
	ReadResource(ctx context.Context, request *models.FhirReadRequest) (*models.FhirResult, error)
	WriteResource(ctx context.Context, request *models.FhirWriteRequest) (*models.FhirResult, error)
}

// EhrTransport is the outbound HTTP boundary. *http.Client satisfies
// it; the chaos controller decorates it in non-production builds.
type EhrTransport interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields a valid bearer token for the provider, refreshing
// behind a single-flight lock when near expiry. Invalidate drops the
// cached token after a provider-side 401.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

// AssertionSigner produces the signed JWT client assertion for the
// OAuth2 client-credentials grant.
type AssertionSigner interface {
	SignedAssertion(ctx context.Context) (string, error)
}
