// Package ratelimit provides per-client token bucket rate limiting for the HTTP API.
package ratelimit

import (
	"strings"
	"sync"
	"time"
)

// Rule limits requests matching Method and a Path prefix.
type Rule struct {
	Method string
	Path   string // prefix match
	Limit  int    // tokens per Window
	Window time.Duration
	Burst  int // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled bool
	Rules   []Rule
}

// DefaultRules limits the endpoints that call the question generator or the recruiting platform.
func DefaultRules(generatorPerHour, syncPerMinute int) []Rule {
	return []Rule{
		{Method: "POST", Path: "/questions/", Limit: generatorPerHour, Window: time.Hour, Burst: max(1, generatorPerHour/10)},
		{Method: "POST", Path: "/records/", Limit: generatorPerHour, Window: time.Hour, Burst: max(1, generatorPerHour/10)},
		{Method: "POST", Path: "/sync", Limit: syncPerMinute, Window: time.Minute},
	}
}

// Match returns the first rule for method and path, or nil when the request is unlimited.
func Match(method, path string, rules []Rule) *Rule {
	for i := range rules {
		r := &rules[i]
		if r.Method == method && strings.HasPrefix(path, r.Path) {
			return r
		}
	}
	return nil
}

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	capacity   float64
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func (b *bucket) take(now time.Time) (bool, time.Duration) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.lastRefill).Seconds()*b.refillRate)
	b.lastRefill = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / b.refillRate
	return false, time.Duration(wait * float64(time.Second))
}

// Limiter manages rate limiting for multiple clients using token buckets.
type Limiter struct {
	mu      sync.Mutex
	config  Config
	buckets map[string]*bucket
	now     func() time.Time
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	return &Limiter{config: config, buckets: make(map[string]*bucket), now: time.Now}
}

// Allow consumes a token for clientID on the rule matching method and path.
func (l *Limiter) Allow(clientID, method, path string) Info {
	if !l.config.Enabled {
		return Info{Allowed: true}
	}
	rule := Match(method, path, l.config.Rules)
	if rule == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return Info{Allowed: true}
	}

	capacity := rule.Burst
	if capacity <= 0 {
		capacity = rule.Limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	key := clientID + ":" + rule.Method + ":" + rule.Path
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{
			capacity:   float64(capacity),
			refillRate: float64(rule.Limit) / rule.Window.Seconds(),
			tokens:     float64(capacity),
			lastRefill: now,
		}
		l.buckets[key] = b
	}
	allowed, retry := b.take(now)
	l.evict(now)

	return Info{Allowed: allowed, Limit: rule.Limit, Remaining: int(b.tokens), RetryAfter: retry}
}

// evict drops buckets that have been full for an hour. Callers hold l.mu.
func (l *Limiter) evict(now time.Time) {
	cutoff := now.Add(-time.Hour)
	for k, b := range l.buckets {
		if b.lastRefill.Before(cutoff) {
			delete(l.buckets, k)
		}
	}
}
