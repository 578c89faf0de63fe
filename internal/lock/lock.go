// Package lock provides short-lived per-key mutual exclusion used to
// serialize concurrent check-ins of the same badge. Two implementations
// exist: a Redis lock shared by every API process and an in-process keyed
// mutex used when Redis is not configured or not reachable.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired is returned when the lock could not be taken before the
// wait deadline.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires a named lock. The returned release function is safe to
// call more than once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
