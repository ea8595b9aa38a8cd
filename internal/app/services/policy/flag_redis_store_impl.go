package policy

import (
	"context"
	"medbridge-service/internal/app/contracts"
	"medbridge-service/internal/app/models"
	"medbridge-service/internal/pkg/constvars"
	"medbridge-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
)

// FlagRedisStore persists flag state as JSON under policy:flag:<key>.
// Flags have no TTL; they live until changed by an admin.
type FlagRedisStore struct {
	RedisRepository contracts.RedisRepository
}

func NewFlagRedisStore(redisRepository contracts.RedisRepository) contracts.FlagStore {
	return &FlagRedisStore{RedisRepository: redisRepository}
}

func (s *FlagRedisStore) GetFlag(ctx context.Context, flagKey string) (*models.FlagState, error) {
	raw, err := s.RedisRepository.Get(ctx, constvars.RedisKeyFlagPrefix+flagKey)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var state models.FlagState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, exceptions.ErrCannotParseJSON(err)
	}
	return &state, nil
}

func (s *FlagRedisStore) PutFlag(ctx context.Context, state *models.FlagState) error {
	// The repository marshals the value itself.
	return s.RedisRepository.Set(ctx, constvars.RedisKeyFlagPrefix+state.Key, state, 0)
}
