package ehr

import (
	"context"
	"errors"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/exceptions"
	"net"
)

// mapStatusCode folds a provider HTTP status into the closed taxonomy.
func mapStatusCode(statusCode int) models.OutcomeKind {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return models.OutcomeSuccess
	case statusCode == 400 || statusCode == 422:
		return models.OutcomeValidationError
	case statusCode == 401 || statusCode == 403:
		return models.OutcomeAuthError
	case statusCode == 409 || statusCode == 412:
		return models.OutcomeConflict
	case statusCode == 429:
		return models.OutcomeRateLimited
	case statusCode >= 500:
		return models.OutcomeTransientServer
	default:
		return models.OutcomeUnknown
	}
}

// mapTransportError folds a failed round trip into the taxonomy.
func mapTransportError(ctx context.Context, err error) models.OutcomeKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return models.OutcomeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return models.OutcomeTimeout
	}
	return models.OutcomeTransientServer
}

// breakerFailure reports whether an outcome counts against the circuit
// breaker. Client-side errors mean the provider answered and is
// healthy; only server faults and unreachability trip the breaker.
func breakerFailure(kind models.OutcomeKind) bool {
	switch kind {
	case models.OutcomeTransientServer, models.OutcomeTimeout:
		return true
	}
	return false
}

// outcomeError converts a non-success taxonomy kind to the matching
// typed error for callers.
func outcomeError(kind models.OutcomeKind, err error) error {
	switch kind {
	case models.OutcomeValidationError:
		return exceptions.ErrEhrValidation(err)
	case models.OutcomeAuthError:
		return exceptions.ErrEhrAuth(err)
	case models.OutcomeConflict:
		return exceptions.ErrEhrConflict(err)
	case models.OutcomeRateLimited:
		return exceptions.ErrEhrRateLimited(err)
	case models.OutcomeTransientServer:
		return exceptions.ErrEhrTransientServer(err)
	case models.OutcomeTimeout:
		return exceptions.ErrEhrTimeout(err)
	default:
		return exceptions.ErrEhrUnknown(err)
	}
}
