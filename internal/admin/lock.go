package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Locker serialises work on one key across instances. The returned func releases the lock.
type Locker interface {
	Obtain(ctx context.Context, key string) (func(), error)
}

var errLockBusy = errors.New("lock is held by another request")

type redisLocker struct {
	rs  *redsync.Redsync
	ttl time.Duration
}

func NewRedisLocker(client redis.UniversalClient, ttl time.Duration) Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &redisLocker{rs: redsync.New(goredis.NewPool(client)), ttl: ttl}
}

func (l *redisLocker) Obtain(ctx context.Context, key string) (func(), error) {
	m := l.rs.NewMutex(key,
		redsync.WithExpiry(l.ttl),
		redsync.WithTries(1),
	)
	if err := m.LockContext(ctx); err != nil {
		// redsync reports a taken lock and an unreachable node the same way after its tries
		return nil, fmt.Errorf("%w: %v", errLockBusy, err)
	}
	return func() {
		_, _ = m.UnlockContext(context.WithoutCancel(ctx))
	}, nil
}
