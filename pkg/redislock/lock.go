/**
 * @description
 * Short-lived per-phone request lock backed by Redis. The USSD channel gives
 * no atomicity between reading a user record and writing its next state, so
 * two concurrent requests for one phone (a double-submit) could both observe
 * a flow at rest and both fire a provider call. Holding a SET NX lock for the
 * duration of one request closes that window.
 *
 * @notes
 * - Release compares the lock token before deleting so an expired lock taken
 *   over by another request is never released from here.
 */
package redislock

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
end
return 0
`

// Locker acquires per-key mutual exclusion through Redis.
type Locker struct {
	client *goredis.Client
	ttl    time.Duration
}

// New creates a Locker. ttl bounds how long a crashed request can keep a
// phone number locked.
func New(client *goredis.Client, ttl time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl}
}

// Acquire attempts to take the lock for key. On success it returns a release
// function and true. On contention it returns false. A Redis transport error
// is returned so the caller can decide whether to fail open.
func (l *Locker) Acquire(ctx context.Context, key string) (release func(), acquired bool, err error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	release = func() {
		// Best effort; the TTL reclaims the lock if this fails.
		l.client.Eval(context.Background(), releaseScript, []string{key}, token)
	}
	return release, true, nil
}
