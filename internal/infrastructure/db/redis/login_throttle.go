package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 5
	defaultLockout     = 15 * time.Minute
)

// LoginThrottle counts failed logins per key in Redis. The counter expires
// lockout after the first failure; once it reaches maxFailures the key is
// locked until the counter expires.
// Key format: login:fail:<key>
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	lockout     time.Duration
}

// NewLoginThrottle creates a LoginThrottle wrapping the given Redis client.
// Non-positive values fall back to 5 failures per 15 minutes.
func NewLoginThrottle(client *redis.Client, maxFailures int, lockout time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if lockout <= 0 {
		lockout = defaultLockout
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), lockout: lockout}
}

// Locked reports whether key has reached the failure limit.
func (t *LoginThrottle) Locked(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Get(ctx, failureKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("login throttle check: %w", err)
	}
	return n >= t.maxFailures, nil
}

// recordFailureScript increments the counter and starts its window on the
// first failure. Running both steps in one script keeps the counter from
// being left without a TTL, and does not need EXPIRE NX (Redis 7).
var recordFailureScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RecordFailure counts one failed attempt for key.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string) error {
	err := recordFailureScript.Run(ctx, t.client, []string{failureKey(key)}, t.lockout.Milliseconds()).Err()
	if err != nil {
		return fmt.Errorf("login throttle record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, failureKey(key)).Err(); err != nil {
		return fmt.Errorf("login throttle reset: %w", err)
	}
	return nil
}

func failureKey(key string) string {
	return "login:fail:" + key
}
