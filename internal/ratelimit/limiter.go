// Package ratelimit implements per-(action, identity) fixed-window counters in Redis.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ActionFacilitySearch = "facility_search"
	ActionGacha          = "gacha"
	ActionAIAdvice       = "ai_advice"
)

// INCR and the first PEXPIRE run as one script, so concurrent hits from the
// same identity are never lost. A key without TTL is re-armed.
const fixedWindowScript = `
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, action, identity string) (*Result, error)
}

type redisLimiter struct {
	client *redis.Client
	script *redis.Script
	limits map[string]int
	window time.Duration
}

// NewLimiter builds a limiter with a per-action limit for one shared window.
// Actions missing from limits are always allowed.
func NewLimiter(client *redis.Client, limits map[string]int, window time.Duration) Limiter {
	return &redisLimiter{
		client: client,
		script: redis.NewScript(fixedWindowScript),
		limits: limits,
		window: window,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, action, identity string) (*Result, error) {
	limit, ok := l.limits[action]
	if !ok || limit <= 0 {
		return &Result{Allowed: true}, nil
	}
	if identity == "" {
		return nil, errors.New("rate limiter identity is empty")
	}

	res, err := l.script.Run(ctx, l.client, []string{Key(action, identity)}, l.window.Milliseconds()).Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(res) < 2 {
		return nil, errors.New("invalid rate limit script response")
	}

	count, _ := res[0].(int64)
	ttl, _ := res[1].(int64)

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   int(count) <= limit,
		Limit:     limit,
		Remaining: remaining,
	}
	if !result.Allowed {
		result.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return result, nil
}

func Key(action, identity string) string {
	return "ratelimit:" + action + ":" + identity
}

// Identity keys anonymous callers by IP and authenticated callers by user and IP.
func Identity(ip, userID string) string {
	if userID == "" {
		return "ip:" + ip
	}
	return "user:" + userID + ":ip:" + ip
}
