package policy

import (
	"context"
	"fmt"
	"hash/fnv"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"
	"sync"

	"github.com/goccy/go-json"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
)

const bucketSpace = 10000

type policyUsecase struct {
	FlagStore    contracts.FlagStore
	AuditService contracts.AuditService
	Log          *zap.Logger

	// cache keeps hot flags out of redis on the read path. Entries expire
	// quickly so admin changes land within seconds on every instance.
	cache *expirable.LRU[string, *models.FlagState]
}

var (
	policyUsecaseInstance contracts.PolicyGate
	oncePolicyUsecase     sync.Once
)

func NewPolicyUsecase(
	flagStore contracts.FlagStore,
	auditService contracts.AuditService,
	logger *zap.Logger,
) contracts.PolicyGate {
	oncePolicyUsecase.Do(func() {
		policyUsecaseInstance = &policyUsecase{
			FlagStore:    flagStore,
			AuditService: auditService,
			Log:          logger,
			cache:        expirable.NewLRU[string, *models.FlagState](constvars.RedisFlagCacheSize, nil, constvars.RedisFlagCacheTTL),
		}
	})
	return policyUsecaseInstance
}

func (uc *policyUsecase) loadFlag(ctx context.Context, flagKey string) (*models.FlagState, error) {
	if state, ok := uc.cache.Get(flagKey); ok {
		return state, nil
	}
	state, err := uc.FlagStore.GetFlag(ctx, flagKey)
	if err != nil {
		return nil, exceptions.ErrFlagStoreRead(err)
	}
	if state != nil {
		uc.cache.Add(flagKey, state)
	}
	return state, nil
}

// IsEnabled evaluates kill switch, then per-user override, then rollout
// bucket. An unknown flag and an unreachable store both evaluate to
// disabled.
func (uc *policyUsecase) IsEnabled(ctx context.Context, flagKey, actorID string) (bool, error) {
	state, err := uc.loadFlag(ctx, flagKey)
	if err != nil {
		requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
		uc.Log.Error("policyUsecase.IsEnabled flag store unreachable, denying",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingFlagKeyKey, flagKey),
			zap.Error(err),
		)
		return false, err
	}
	if state == nil || !state.Enabled {
		return false, nil
	}
	if override, ok := state.Overrides[actorID]; ok {
		return override, nil
	}
	if state.Rollout == nil {
		return true, nil
	}
	return bucketOf(flagKey, actorID) < *state.Rollout, nil
}

// bucketOf maps an actor to a stable point in [0,1). The flag key salts
// the hash so rollout cohorts differ between flags.
func bucketOf(flagKey, actorID string) float64 {
	h := fnv.New32a()
	h.Write([]byte(flagKey))
	h.Write([]byte(":"))
	h.Write([]byte(actorID))
	return float64(h.Sum32()%bucketSpace) / bucketSpace
}

func (uc *policyUsecase) GetFlag(ctx context.Context, flagKey string) (*models.FlagState, error) {
	state, err := uc.FlagStore.GetFlag(ctx, flagKey)
	if err != nil {
		return nil, exceptions.ErrFlagStoreRead(err)
	}
	if state == nil {
		return nil, exceptions.ErrFlagNotFound(fmt.Errorf("flag %s does not exist", flagKey))
	}
	return state, nil
}

func (uc *policyUsecase) SetFlag(ctx context.Context, mutation *models.FlagMutation) (*models.FlagState, error) {
	current, err := uc.FlagStore.GetFlag(ctx, mutation.FlagKey)
	if err != nil {
		return nil, exceptions.ErrFlagStoreRead(err)
	}

	next := &models.FlagState{Key: mutation.FlagKey}
	if current != nil {
		*next = *current
	}
	if mutation.Enabled != nil {
		next.Enabled = *mutation.Enabled
	}
	if mutation.Rollout != nil {
		next.Rollout = mutation.Rollout
	}

	if err := uc.applyMutation(ctx, mutation.AdminID, current, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (uc *policyUsecase) SetUserOverride(ctx context.Context, mutation *models.OverrideMutation) (*models.FlagState, error) {
	current, err := uc.FlagStore.GetFlag(ctx, mutation.FlagKey)
	if err != nil {
		return nil, exceptions.ErrFlagStoreRead(err)
	}
	if current == nil {
		return nil, exceptions.ErrFlagNotFound(fmt.Errorf("flag %s does not exist", mutation.FlagKey))
	}

	next := *current
	next.Overrides = make(map[string]bool, len(current.Overrides)+1)
	for k, v := range current.Overrides {
		next.Overrides[k] = v
	}
	next.Overrides[mutation.ActorID] = mutation.Enabled

	if err := uc.applyMutation(ctx, mutation.AdminID, current, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// applyMutation appends the policy.flag_changed event before touching
// the store: a change that cannot be audited does not take effect.
func (uc *policyUsecase) applyMutation(ctx context.Context, adminID string, current, next *models.FlagState) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	oldValue := "null"
	if current != nil {
		if raw, err := json.Marshal(current); err == nil {
			oldValue = string(raw)
		}
	}
	newValue, err := json.Marshal(next)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	_, err = uc.AuditService.Append(ctx, &models.AuditEvent{
		Provider: constvars.AuditChainPlatform,
		Actor:    adminID,
		Type:     constvars.AuditEventPolicyFlagChanged,
		Subject:  next.Key,
		Outcome:  models.AuditOutcome{Success: true},
		Context: map[string]string{
			constvars.AuditContextOldValue: oldValue,
			constvars.AuditContextNewValue: string(newValue),
		},
	})
	if err != nil {
		uc.Log.Error("policyUsecase.applyMutation audit refused, mutation dropped",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingFlagKeyKey, next.Key),
			zap.Error(err),
		)
		return exceptions.ErrFlagAuditRefused(err)
	}

	if err := uc.FlagStore.PutFlag(ctx, next); err != nil {
		return exceptions.ErrFlagStoreWrite(err)
	}
	uc.cache.Remove(next.Key)

	uc.Log.Info("policyUsecase.applyMutation flag updated",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingFlagKeyKey, next.Key),
		zap.String(constvars.LoggingActorIDKey, adminID),
	)
	return nil
}
