package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"adminconsole/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const rateLimitKeyPrefix = "adminconsole:ratelimit:"

// tokenBucketScript implements the Token Bucket algorithm.
// Input: ARGV[1]=rate, ARGV[2]=capacity, ARGV[3]=now, ARGV[4]=requested
// Output: { allowed, remaining, reset_after }
var tokenBucketScript = redis.NewScript(`
local tokens_key = KEYS[1]
local ts_key = KEYS[2]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local fill_time = capacity / rate
local ttl = math.ceil(fill_time * 2)

-- Load state
local last_tokens = tonumber(redis.call("get", tokens_key))
if last_tokens == nil then last_tokens = capacity end

local last_ts = tonumber(redis.call("get", ts_key))
if last_ts == nil then last_ts = now end

-- Refill
local delta = math.max(0, now - last_ts)
local filled_tokens = math.min(capacity, last_tokens + (delta * rate))
local allowed = 0
local remaining = filled_tokens
local reset_after = 0

if filled_tokens >= requested then
    allowed = 1
    filled_tokens = filled_tokens - requested
    remaining = filled_tokens
else
    allowed = 0
    remaining = filled_tokens
    reset_after = (requested - filled_tokens) / rate
end

if allowed == 1 then
    redis.call("set", tokens_key, filled_tokens, "EX", ttl)
    redis.call("set", ts_key, now, "EX", ttl)
end

return { allowed, remaining, reset_after }
`)

// localLimiters is the in-memory fallback, one bucket per client IP.
type localLimiters struct {
	mu        sync.Mutex
	limiters  map[string]*localLimiter
	lastSweep time.Time
	idle      time.Duration
}

type localLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLocalLimiters(idle time.Duration) *localLimiters {
	return &localLimiters{
		limiters:  make(map[string]*localLimiter),
		lastSweep: time.Now(),
		idle:      idle,
	}
}

func (l *localLimiters) get(ip string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > l.idle {
		for key, v := range l.limiters {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	if v, ok := l.limiters[ip]; ok {
		v.lastSeen = now
		return v.limiter
	}
	v := &localLimiter{limiter: rate.NewLimiter(r, b), lastSeen: now}
	l.limiters[ip] = v
	return v.limiter
}

// RateLimitMiddleware limits requests per client IP under scope. Redis holds
// the buckets when rdb is set; without it, or when Redis fails, a local
// limiter takes over so sign-in never becomes unavailable.
func RateLimitMiddleware(rdb *redis.Client, scope string, requestsPerSecond int) gin.HandlerFunc {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	burst := requestsPerSecond
	limit := fmt.Sprintf("%d", requestsPerSecond)
	local := newLocalLimiters(10 * time.Minute)

	allowLocal := func(c *gin.Context, ip string) {
		limiter := local.get(ip, rate.Limit(requestsPerSecond), burst)
		c.Header("X-RateLimit-Limit", limit)
		if !limiter.Allow() {
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(limiter.Tokens())))
		c.Next()
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if rdb == nil {
			allowLocal(c, clientIP)
			return
		}

		keyPrefix := rateLimitKeyPrefix + scope + ":" + clientIP
		keys := []string{keyPrefix + ":tokens", keyPrefix + ":ts"}
		args := []any{
			float64(requestsPerSecond),
			float64(burst),
			float64(time.Now().UnixMicro()) / 1e6,
			1,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 100*time.Millisecond)
		defer cancel()

		result, err := tokenBucketScript.Run(ctx, rdb, keys, args...).Result()
		if err != nil {
			logger.Warn("redis rate limit failed, switching to local fallback",
				zap.Error(err),
				zap.String("scope", scope),
				zap.String("ip", clientIP))
			allowLocal(c, clientIP)
			return
		}

		resSlice, ok := result.([]any)
		if !ok || len(resSlice) != 3 {
			logger.Error("invalid redis rate limit response", zap.Any("response", result))
			c.Next()
			return
		}

		allowed := helperInt(resSlice[0]) == 1
		remaining := helperFloat(resSlice[1])
		resetAfter := helperFloat(resSlice[2])

		c.Header("X-RateLimit-Limit", limit)
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", int(remaining)))
		resetTime := time.Now().Add(time.Duration(resetAfter * float64(time.Second)))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime.Unix()))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too Many Requests"})
			return
		}
		c.Next()
	}
}

func helperInt(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case float64:
		return int64(val)
	default:
		return 0
	}
}

func helperFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int64:
		return float64(val)
	default:
		return 0
	}
}
