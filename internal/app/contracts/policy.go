package contracts

import (
	"context"
	"medbridge-service/internal/app/models"
)

// PolicyGate answers yes/no capability questions and applies audited
// administrative mutations. A mutation that cannot be audited must not
// take effect.
type PolicyGate interface {
	IsEnabled(ctx context.Context, flagKey, actorID string) (bool, error)
	GetFlag(ctx context.Context, flagKey string) (*models.FlagState, error)
	SetFlag(ctx context.Context, mutation *models.FlagMutation) (*models.FlagState, error)
	SetUserOverride(ctx context.Context, mutation *models.OverrideMutation) (*models.FlagState, error)
}

// FlagStore is the key-value configuration source behind the gate.
type FlagStore interface {
	GetFlag(ctx context.Context, flagKey string) (*models.FlagState, error)
	PutFlag(ctx context.Context, state *models.FlagState) error
}
