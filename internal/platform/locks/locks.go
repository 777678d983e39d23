// Package locks serialises work on a key across goroutines (Memory) or
// processes (Redis). A lock is held until the returned unlock is called.
package locks

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when ctx ends before the lock could be taken.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires an exclusive lock on key, waiting until ctx is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
