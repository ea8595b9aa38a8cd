package contracts

import (
	"context"
	"time"
)

// LockerService provides best-effort distributed locks for scheduled
// jobs that must not run on two instances at once.
type LockerService interface {
	TryLock(ctx context.Context, key string, expiration time.Duration) (bool, string, error)
	Unlock(ctx context.Context, key, lockValue string) error
}
