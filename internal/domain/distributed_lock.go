package domain

import (
	"context"
	"time"
)

// DistributedLock keeps concurrent consumers from delivering the same
// notification twice at the same moment.
type DistributedLock interface {
	Ping(ctx context.Context) (err error)
	Lock(lockKey string, lockTimeDuration time.Duration) (result bool, err error)
	Unlock(lockKey string) (err error)
	Close() error
}
