package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ── Register lock ─────────────────────────────────────────────────────────────
// Cross-process companion to OpGuard: when several API instances share one
// database, a Redis lock keyed per register keeps their drawer mutations from
// interleaving. Single acquisition attempt — contention maps to ErrBusy, the
// same answer an in-process collision gets.

const registerLockTTL = 30 * time.Second

// RegisterLocker obtains per-register locks backed by redislock.
// A nil locker (no Redis configured) is valid and locks nothing.
type RegisterLocker struct {
	client *redislock.Client
}

func NewRegisterLocker(rdb *redis.Client) *RegisterLocker {
	if rdb == nil {
		return &RegisterLocker{}
	}
	return &RegisterLocker{client: redislock.New(rdb)}
}

// Acquire takes the lock for one register. The returned release func is
// always safe to call, also when acquisition was skipped.
func (l *RegisterLocker) Acquire(ctx context.Context, registerID int) (func(), error) {
	if l == nil || l.client == nil {
		return func() {}, nil
	}
	key := fmt.Sprintf("drawer:lock:%d", registerID)
	lock, err := l.client.Obtain(ctx, key, registerLockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return func() {}, ErrBusy
	}
	if err != nil {
		return func() {}, err
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}
