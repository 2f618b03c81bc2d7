package redisinfra

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

// evalTimeout bounds a single limiter round-trip; on timeout the limiter fails open.
const evalTimeout = 500 * time.Millisecond

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// AttemptLimiter counts attempts per key in a fixed window shared by all API instances.
type AttemptLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

func NewAttemptLimiter(client *redis.Client, prefix string, window time.Duration, max int) *AttemptLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &AttemptLimiter{client: client, window: window, max: max, prefix: prefix}
}

// Allow records an attempt for key and reports whether it is within the limit.
// Redis errors allow the attempt.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	k := normalizeKey(key)
	if k == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, evalTimeout)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, allowScript, []string{l.prefix + k}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

// MemoryLimiter is the single-instance fallback used when Redis is not configured.
type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	now     func() time.Time
	buckets map[string]*bucket
}

type bucket struct {
	count   int
	resetAt time.Time
}

func NewMemoryLimiter(window time.Duration, max int) *MemoryLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &MemoryLimiter{window: window, max: max, now: time.Now, buckets: make(map[string]*bucket)}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) bool {
	k := normalizeKey(key)
	if k == "" {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[k]
	if !ok || !now.Before(b.resetAt) {
		l.sweep(now)
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[k] = b
	}
	b.count++
	return b.count <= l.max
}

// sweep drops expired buckets. Callers hold mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	for k, b := range l.buckets {
		if !now.Before(b.resetAt) {
			delete(l.buckets, k)
		}
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
