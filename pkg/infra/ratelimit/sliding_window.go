package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type FailurePolicy string

const (
	FailOpen   FailurePolicy = "fail_open"
	FailClosed FailurePolicy = "fail_closed"
)

var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// acquireScript prunes, counts and conditionally records in one round trip.
// The window is (now-window, now]. Returns {allowed, count}.
var acquireScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])
redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
local count = redis.call('ZCOUNT', key, '(' .. ARGV[2], now)
if count >= limit then
  return {0, count}
end
redis.call('ZADD', key, now, ARGV[5])
redis.call('EXPIRE', key, ttl)
return {1, count + 1}
`)

type Config struct {
	// Name labels metrics, e.g. "contact" or "api".
	Name          string
	KeyPrefix     string
	Window        time.Duration
	MaxRequests   int
	FailurePolicy FailurePolicy
	// Atomic switches from check-then-add to a single server-side script.
	Atomic  bool
	Timeout time.Duration
}

type SlidingWindowOpts struct {
	TimeProvider func() time.Time
	UuidProvider func() uuid.UUID
}

// SlidingWindowLimiter counts accepted requests per client in a Redis sorted
// set scored by epoch milliseconds.
type SlidingWindowLimiter struct {
	client       redis.Cmdable
	cfg          Config
	timeProvider func() time.Time
	uuidProvider func() uuid.UUID
}

func NewSlidingWindowLimiter(client redis.Cmdable, cfg Config, opts *SlidingWindowOpts) *SlidingWindowLimiter {
	if cfg.FailurePolicy == "" {
		cfg.FailurePolicy = FailClosed
	}
	l := &SlidingWindowLimiter{
		client:       client,
		cfg:          cfg,
		timeProvider: time.Now,
		uuidProvider: uuid.New,
	}
	if opts != nil {
		if opts.TimeProvider != nil {
			l.timeProvider = opts.TimeProvider
		}
		if opts.UuidProvider != nil {
			l.uuidProvider = opts.UuidProvider
		}
	}
	return l
}

func (l *SlidingWindowLimiter) Key(clientID string) string {
	return l.cfg.KeyPrefix + ":" + clientID
}

// TTL is the key expiry: the window rounded up to whole seconds.
func (l *SlidingWindowLimiter) TTL() time.Duration {
	return time.Duration(math.Ceil(l.cfg.Window.Seconds())) * time.Second
}

// TryAcquire admits the request when fewer than MaxRequests were accepted in
// the trailing window, recording it. An entry exactly one window old no
// longer counts. Rejections are not recorded. On a store
// failure the decision follows the failure policy and the error is returned.
func (l *SlidingWindowLimiter) TryAcquire(ctx context.Context, clientID string) (contact.Decision, error) {
	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	now := l.timeProvider()
	nowMs := now.UnixMilli()
	windowStart := nowMs - l.cfg.Window.Milliseconds()
	key := l.Key(clientID)
	member := strconv.FormatInt(nowMs, 10) + ":" + l.uuidProvider().String()

	var (
		allowed bool
		count   int64
		err     error
	)
	if l.cfg.Atomic {
		allowed, count, err = l.acquireAtomic(ctx, key, nowMs, windowStart, member)
	} else {
		allowed, count, err = l.acquire(ctx, key, nowMs, windowStart, member)
	}

	decision := contact.Decision{
		Limit:   l.cfg.MaxRequests,
		ResetAt: now.Add(l.cfg.Window),
	}
	if err != nil {
		decision.Allowed = l.cfg.FailurePolicy == FailOpen
		prometheus.RateLimitDecisions.WithLabelValues(l.cfg.Name, "store_error").Inc()
		return decision, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	decision.Allowed = allowed
	decision.Count = int(count)
	decision.Remaining = l.cfg.MaxRequests - int(count)
	if decision.Remaining < 0 {
		decision.Remaining = 0
	}
	result := "allowed"
	if !allowed {
		result = "rejected"
	}
	prometheus.RateLimitDecisions.WithLabelValues(l.cfg.Name, result).Inc()
	return decision, nil
}

func (l *SlidingWindowLimiter) acquire(ctx context.Context, key string, nowMs, windowStart int64, member string) (bool, int64, error) {
	start := strconv.FormatInt(windowStart, 10)
	count, err := l.client.ZCount(ctx, key, "("+start, strconv.FormatInt(nowMs, 10)).Result()
	if err != nil {
		return false, 0, err
	}
	if count >= int64(l.cfg.MaxRequests) {
		return false, count, nil
	}

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", start)
	pipe.ZAdd(ctx, key, &redis.Z{Score: float64(nowMs), Member: member})
	pipe.Expire(ctx, key, l.TTL())
	if _, err := pipe.Exec(ctx); err != nil {
		return false, count, err
	}
	return true, count + 1, nil
}

func (l *SlidingWindowLimiter) acquireAtomic(ctx context.Context, key string, nowMs, windowStart int64, member string) (bool, int64, error) {
	res, err := acquireScript.Run(
		ctx,
		l.client,
		[]string{key},
		nowMs,
		windowStart,
		int64(l.cfg.MaxRequests),
		int64(l.TTL().Seconds()),
		member,
	).Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("unexpected script reply of length %d", len(res))
	}
	allowed, okAllowed := res[0].(int64)
	count, okCount := res[1].(int64)
	if !okAllowed || !okCount {
		return false, 0, fmt.Errorf("unexpected script reply %v", res)
	}
	return allowed == 1, count, nil
}

// AcquireScriptHash is the SHA1 the limiter uses with EVALSHA.
func AcquireScriptHash() string {
	return acquireScript.Hash()
}
