// Package lock provides a Redis-backed lease so only one replica polls
// the mailbox at a time.
package lock

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RunLock is a best-effort SETNX lease keyed per mailbox. It is a
// complement to the in-process skip-if-running guard, not a fencing
// token: the seen-flag remains the source of truth for duplicates.
type RunLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	token  string
}

func NewRunLock(client *redis.Client, key string, ttl time.Duration) *RunLock {
	return &RunLock{
		client: client,
		key:    "triage:runlock:" + key,
		ttl:    ttl,
	}
}

// Acquire tries to take the lease. It returns false without error when
// another holder owns it.
func (l *RunLock) Acquire(ctx context.Context, token string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release drops the lease if this holder still owns it.
func (l *RunLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	// Delete only our own token; an expired lease may have been re-acquired.
	const script = `
		if redis.call("GET", KEYS[1]) == ARGV[1] then
			return redis.call("DEL", KEYS[1])
		end
		return 0`
	err := l.client.Eval(ctx, script, []string{l.key}, l.token).Err()
	l.token = ""
	return err
}
