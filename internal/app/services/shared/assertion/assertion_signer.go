package assertion

import (
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"medbridge-service/internal/app/config"
	"medbridge-service/internal/app/contracts"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	algES256 = "ES256"
	algRS256 = "RS256"

	// Epic rejects assertions valid for more than 5 minutes.
	assertionTTL = 5 * time.Minute
)

// Signer produces the private_key_jwt client assertion used by the
// OAuth2 client-credentials grant against the provider token endpoint.
// Claims follow the SMART backend-services profile: iss and sub are the
// client id, aud is the token URL, jti is unique per assertion.
type Signer struct {
	log      *zap.Logger
	alg      string
	clientID string
	audience string
	ecPriv   *ecdsa.PrivateKey
	rsaPriv  *rsa.PrivateKey
}

// NewSigner parses the configured PEM private key. Algorithm: RS256
// (default) or ES256 via EHR_CLIENT_JWT_ALG.
func NewSigner(cfg *config.InternalConfig, log *zap.Logger) (contracts.AssertionSigner, error) {
	alg := strings.ToUpper(strings.TrimSpace(cfg.EHR.JWTAlg))
	if alg == "" {
		alg = algRS256
	}

	pemKey := strings.TrimSpace(cfg.EHR.PrivateKeyPEM)
	if pemKey == "" {
		return nil, fmt.Errorf("EHR_CLIENT_PRIVATE_KEY is empty")
	}

	block, _ := pem.Decode([]byte(pemKey))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM for EHR_CLIENT_PRIVATE_KEY")
	}

	s := &Signer{
		log:      log,
		alg:      alg,
		clientID: cfg.EHR.ClientID,
		audience: cfg.EHR.TokenUrl,
	}

	switch alg {
	case algES256:
		ecKey, err := parseECPrivateKey(block)
		if err != nil {
			return nil, err
		}
		s.ecPriv = ecKey
	case algRS256:
		rsaKey, err := parseRSAPrivateKey(block)
		if err != nil {
			return nil, err
		}
		s.rsaPriv = rsaKey
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm: %s", alg)
	}

	return s, nil
}

func (s *Signer) SignedAssertion(ctx context.Context) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"iss": s.clientID,
		"sub": s.clientID,
		"aud": s.audience,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": now.Add(assertionTTL).Unix(),
	}

	switch s.alg {
	case algES256:
		token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
		return token.SignedString(s.ecPriv)
	case algRS256:
		token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
		return token.SignedString(s.rsaPriv)
	}
	return "", fmt.Errorf("unsupported JWT algorithm: %s", s.alg)
}

func parseECPrivateKey(block *pem.Block) (*ecdsa.PrivateKey, error) {
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse EC private key: %w", err)
	}
	ecKey, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PKCS8 key is not an EC private key")
	}
	return ecKey, nil
}

func parseRSAPrivateKey(block *pem.Block) (*rsa.PrivateKey, error) {
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}
	rsaKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("PKCS8 key is not an RSA private key")
	}
	return rsaKey, nil
}
