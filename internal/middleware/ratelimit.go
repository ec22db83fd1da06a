package middleware

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"artfeed/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// FailPolicy defines the behavior when the rate limit store (Redis) errors.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis errors.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis errors.
	FailClosed
)

// localLimiterSweepInterval is how often idle local limiters are dropped.
const localLimiterSweepInterval = time.Minute

type localLimiter struct {
	limiter  *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// localLimiters is the in-process fallback used when no Redis client is configured.
// Limits are then per instance rather than global.
var localLimiters = struct {
	sync.Mutex
	m         map[string]*localLimiter
	lastSweep time.Time
}{m: make(map[string]*localLimiter)}

func rateLimitBypassed() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

// CheckRateLimit checks if a resource has exceeded its rate limit.
// Returns true if allowed, false if limit exceeded.
// Rate limiting is disabled when APP_ENV is unset, "test" or "development".
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rateLimitBypassed() {
		return true, nil
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	if rdb == nil {
		return allowLocal(key, limit, window), nil
	}

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		rdb.Expire(ctx, key, window)
	}
	return cnt <= int64(limit), nil
}

func allowLocal(key string, limit int, window time.Duration) bool {
	if limit <= 0 {
		return false
	}
	now := time.Now()
	localLimiters.Lock()
	if now.Sub(localLimiters.lastSweep) >= localLimiterSweepInterval {
		sweepLocalLimiters(now)
	}
	l, ok := localLimiters.m[key]
	if !ok {
		l = &localLimiter{
			limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
			window:  window,
		}
		localLimiters.m[key] = l
	}
	l.lastSeen = now
	localLimiters.Unlock()
	return l.limiter.AllowN(now, 1)
}

// sweepLocalLimiters drops limiters idle for longer than their window. Such a
// limiter has refilled to its full burst, so recreating it loses nothing.
// The caller holds localLimiters.
func sweepLocalLimiters(now time.Time) {
	for key, l := range localLimiters.m {
		if now.Sub(l.lastSeen) > l.window {
			delete(localLimiters.m, key)
		}
	}
	localLimiters.lastSweep = now
}

// RateLimit returns a Fiber middleware enforcing `limit` requests per `window`.
// It keys by authenticated userID (if set in c.Locals("userID")) otherwise by remote IP.
func RateLimit(rdb *redis.Client, limit int, window time.Duration, name ...string) fiber.Handler {
	return RateLimitWithPolicy(rdb, limit, window, FailOpen, name...)
}

// RateLimitWithPolicy returns a Fiber middleware enforcing `limit` requests per `window` with a specific failure policy.
func RateLimitWithPolicy(rdb *redis.Client, limit int, window time.Duration, policy FailPolicy, name ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid := c.Locals("userID"); uid != nil {
			id = fmt.Sprintf("user:%v", uid)
		} else {
			id = fmt.Sprintf("ip:%s", c.IP())
		}

		resource := c.Path()
		if len(name) > 0 {
			resource = name[0]
		}

		allowed, err := CheckRateLimit(c.UserContext(), rdb, resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				observability.FromContext(c.UserContext()).Warn("rate limit store unavailable, failing closed",
					zap.String("resource", resource),
					zap.Error(err),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
