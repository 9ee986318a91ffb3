// Package gateway provides the HTTP edge concerns for the analysis API,
// currently redis-backed rate limiting.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig configures the per-client limiter. Endpoint keys are
// "METHOD:path".
type RateLimitConfig struct {
	Enabled           bool                      `yaml:"enabled"`
	RequestsPerMinute int                       `yaml:"requests_per_minute"`
	Endpoints         map[string]EndpointLimits `yaml:"endpoints"`
	IncludeHeaders    bool                      `yaml:"include_headers"`
}

// EndpointLimits overrides the default budget for one endpoint. A cost
// multiplier above 1 makes each request count as several, which keeps the
// expensive investigation fan-out from starving cheap text analysis.
type EndpointLimits struct {
	RequestsPerMinute int `yaml:"requests_per_minute"`
	CostMultiplier    int `yaml:"cost_multiplier"`
}

// DefaultRateLimitConfig returns limits tuned for the analysis endpoints.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 120,
		IncludeHeaders:    true,
		Endpoints: map[string]EndpointLimits{
			"POST:/api/v1/analyze": {
				RequestsPerMinute: 120,
				CostMultiplier:    1,
			},
			"POST:/api/v1/analyze/batch": {
				RequestsPerMinute: 30,
				CostMultiplier:    4,
			},
			// Investigations shell out to external tools; keep them scarce.
			"POST:/api/v1/investigate": {
				RequestsPerMinute: 10,
				CostMultiplier:    10,
			},
			"POST:/api/v1/lexicon/reload": {
				RequestsPerMinute: 6,
				CostMultiplier:    1,
			},
		},
	}
}

// RateLimitResult is the outcome of one check.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	Limit      int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter enforces fixed one-minute windows in redis. Redis being
// unreachable fails open so the analysis API stays up.
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
	logger *zap.Logger
}

// NewRateLimiter creates a limiter.
func NewRateLimiter(redisClient *redis.Client, cfg RateLimitConfig, logger *zap.Logger) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultRateLimitConfig().RequestsPerMinute
	}
	if cfg.Endpoints == nil {
		cfg.Endpoints = DefaultRateLimitConfig().Endpoints
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{redis: redisClient, config: cfg, logger: logger}
}

var incrWithExpiry = redis.NewScript(`
	local current = redis.call('INCRBY', KEYS[1], ARGV[2])
	if current == tonumber(ARGV[2]) then
		redis.call('PEXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// Check counts one request against the client's minute window for the given
// endpoint and reports whether it fits the budget.
func (rl *RateLimiter) Check(ctx context.Context, clientID, endpoint, method string) (*RateLimitResult, error) {
	limit, cost := rl.limitFor(endpoint, method)

	key := fmt.Sprintf("narcosignal:ratelimit:%s:%s:%s", clientID, method, endpoint)
	now := time.Now()

	count, err := incrWithExpiry.Run(ctx, rl.redis, []string{key}, 60000, cost).Int()
	if err != nil {
		rl.logger.Warn("rate limit check failed, allowing request", zap.Error(err))
		return &RateLimitResult{Allowed: true, Limit: limit}, nil
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	ttl, _ := rl.redis.TTL(ctx, key).Result()
	result := &RateLimitResult{
		Allowed:   count <= limit,
		Remaining: remaining,
		Limit:     limit,
		ResetAt:   now.Add(ttl),
	}
	if !result.Allowed {
		result.RetryAfter = ttl
	}
	return result, nil
}

func (rl *RateLimiter) limitFor(endpoint, method string) (limit, cost int) {
	limit, cost = rl.config.RequestsPerMinute, 1
	if ep, ok := rl.config.Endpoints[method+":"+endpoint]; ok {
		if ep.RequestsPerMinute > 0 {
			limit = ep.RequestsPerMinute
		}
		if ep.CostMultiplier > 1 {
			cost = ep.CostMultiplier
		}
	}
	return limit, cost
}

// Middleware wires the limiter into a chi router. Clients are keyed by
// forwarded IP.
func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.config.Enabled {
				next.ServeHTTP(w, r)
				return
			}

			result, err := rl.Check(r.Context(), clientIP(r), r.URL.Path, r.Method)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if rl.config.IncludeHeaders {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
			}

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"rate_limit_exceeded","retry_after":%d}`,
					int(result.RetryAfter.Seconds()))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
