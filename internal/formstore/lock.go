package formstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/productform/internal/resilience"
)

const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`

// locker serialises read-modify-write cycles on one document.
type locker struct {
	client *redis.Client
	ttl    time.Duration
}

// withLock runs fn while holding key. Acquisition retries with backoff until
// ctx is done. The lock is released even when fn fails.
func (l locker) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if l.client == nil {
		return errors.New("formstore: redis client not configured")
	}
	ttl := l.ttl
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	token := uuid.NewString()
	for attempt := 1; ; attempt++ {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			defer l.release(key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(resilience.Backoff(10*time.Millisecond, min(attempt, 5), 0.2))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l locker) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.client.Eval(ctx, releaseScript, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = l.client.Del(ctx, key).Err()
		}
	}
}
