package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// BulkLocker provides mutual exclusion for bulk match runs.
type BulkLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

// NewBulkLocker returns a Redis-backed locker, or an in-process one when client is nil.
func NewBulkLocker(client *redis.Client) BulkLocker {
	if client == nil {
		return NewLocalLocker()
	}
	return NewRedisLocker(client)
}

// releaseScript deletes the key only when it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// extendScript resets the expiry only when the key still holds the caller's token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker implements BulkLocker with SET NX PX.
type RedisLocker struct {
	client *redis.Client
}

// NewRedisLocker constructs a RedisLocker.
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

// Acquire tries to take the lock and returns the owner token on success.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Extend pushes the expiry to ttl from now. It reports false once token no longer owns the lock.
func (l *RedisLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := extendScript.Run(ctx, l.client, []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("redis extend %s: %w", key, err)
	}
	return n == 1, nil
}

// Release drops the lock if token still owns it.
func (l *RedisLocker) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return nil
}

type localLease struct {
	token   string
	expires time.Time
}

// LocalLocker implements BulkLocker within one process.
type LocalLocker struct {
	mu     sync.Mutex
	leases map[string]localLease
	now    func() time.Time
}

// NewLocalLocker constructs an empty LocalLocker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{leases: make(map[string]localLease), now: time.Now}
}

// Acquire takes the lock unless an unexpired lease exists.
func (l *LocalLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, held := l.leases[key]; held && now.Before(lease.expires) {
		return "", false, nil
	}
	token := uuid.NewString()
	l.leases[key] = localLease{token: token, expires: now.Add(ttl)}
	return token, true, nil
}

// Extend renews an unexpired lease owned by token.
func (l *LocalLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	lease, held := l.leases[key]
	if !held || lease.token != token || !now.Before(lease.expires) {
		return false, nil
	}
	l.leases[key] = localLease{token: token, expires: now.Add(ttl)}
	return true, nil
}

// Release drops the lease if token still owns it.
func (l *LocalLocker) Release(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lease, held := l.leases[key]; held && lease.token == token {
		delete(l.leases, key)
	}
	return nil
}
