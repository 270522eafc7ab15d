// Package ratelimit limits expensive requests per client with token buckets.
package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Rule limits requests whose method matches and whose path starts with Prefix.
type Rule struct {
	Method string
	Prefix string
	Limit  int           // requests per Window
	Window time.Duration
	Burst  int           // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled   bool
	Rules     []Rule
	Whitelist map[string]bool
	// IdleTTL drops buckets not used for this long
	IdleTTL time.Duration
}

// DefaultRules covers the pipeline endpoints, which each cost several generation calls.
func DefaultRules(limit int, window time.Duration) []Rule {
	return []Rule{
		{Method: "POST", Prefix: "/api/run", Limit: limit, Window: window, Burst: 2},
	}
}

// LoadConfig reads RATE_LIMIT_* environment variables.
func LoadConfig(getenv func(string) string) *Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	enabled := true
	if v, err := strconv.ParseBool(getenv("RATE_LIMIT_ENABLED")); err == nil {
		enabled = v
	}
	limit := 10
	if v, err := strconv.Atoi(getenv("RATE_LIMIT_RUN_LIMIT")); err == nil && v > 0 {
		limit = v
	}
	window := time.Hour
	if v, err := time.ParseDuration(getenv("RATE_LIMIT_RUN_WINDOW")); err == nil && v > 0 {
		window = v
	}

	whitelist := make(map[string]bool)
	for _, ip := range strings.Split(getenv("RATE_LIMIT_WHITELIST"), ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			whitelist[ip] = true
		}
	}

	return &Config{
		Enabled:   enabled,
		Rules:     DefaultRules(limit, window),
		Whitelist: whitelist,
		IdleTTL:   time.Hour,
	}
}

// Info describes the outcome of a rate limit check.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

type bucket struct {
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
}

func (b *bucket) take(now time.Time) (bool, time.Duration) {
	b.tokens = min(b.capacity, b.tokens+now.Sub(b.last).Seconds()*b.rate)
	b.last = now
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := (1 - b.tokens) / b.rate
	return false, time.Duration(wait * float64(time.Second))
}

// Limiter tracks one bucket per client and rule.
type Limiter struct {
	config  *Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
}

// NewLimiter creates a limiter. A nil config disables limiting.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{}
	}
	return &Limiter{config: config, now: time.Now, buckets: make(map[string]*bucket)}
}

// Match returns the rule for a request, or nil when it is not limited.
func (l *Limiter) Match(path, method string) *Rule {
	for i := range l.config.Rules {
		rule := &l.config.Rules[i]
		if rule.Method == method && strings.HasPrefix(path, rule.Prefix) {
			return rule
		}
	}
	return nil
}

// Allow consumes a token for clientID if the request is limited.
func (l *Limiter) Allow(clientID, path, method string) Info {
	if !l.config.Enabled || l.config.Whitelist[clientID] {
		return Info{Allowed: true}
	}
	rule := l.Match(path, method)
	if rule == nil || rule.Limit <= 0 || rule.Window <= 0 {
		return Info{Allowed: true}
	}

	now := l.now()
	key := clientID + " " + rule.Method + " " + rule.Prefix

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		capacity := rule.Burst
		if capacity <= 0 {
			capacity = rule.Limit
		}
		b = &bucket{
			tokens:   float64(capacity),
			capacity: float64(capacity),
			rate:     float64(rule.Limit) / rule.Window.Seconds(),
			last:     now,
		}
		l.buckets[key] = b
	}
	l.evictIdle(now)

	allowed, retry := b.take(now)
	return Info{
		Allowed:    allowed,
		Limit:      rule.Limit,
		Remaining:  int(b.tokens),
		RetryAfter: retry,
	}
}

// evictIdle drops buckets unused for IdleTTL. Callers hold mu.
func (l *Limiter) evictIdle(now time.Time) {
	if l.config.IdleTTL <= 0 {
		return
	}
	for key, b := range l.buckets {
		if now.Sub(b.last) > l.config.IdleTTL {
			delete(l.buckets, key)
		}
	}
}

// Size returns the number of live buckets.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
