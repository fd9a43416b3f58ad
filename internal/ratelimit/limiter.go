// Package ratelimit throttles MCP tool calls with one token bucket per key.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter hands out a token bucket per key, all with the same rate and
// burst. It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rate    rate.Limit
	burst   int
	nowFunc func() time.Time
}

// NewLimiter creates a limiter refilling perSecond tokens per second up to
// burst. Each bucket starts full.
func NewLimiter(perSecond float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*rate.Limiter),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		nowFunc: time.Now,
	}
}

// Allow reports whether one more call for key fits in its bucket.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.rate, l.burst)
		l.buckets[key] = b
	}
	now := l.nowFunc()
	l.mu.Unlock()
	return b.AllowN(now, 1)
}

// ToolLimiters maps tool names to their limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters returns the limits applied to the hydrorun MCP tools.
// Parsing a report and scoring read whole output files, so they get the
// tighter budgets.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		"hydrorun_tree_get":     NewLimiter(1.0, 10),      // 60/minute, burst 10
		"hydrorun_encode":       NewLimiter(30.0/60.0, 5), // 30/minute, burst 5
		"hydrorun_parse_report": NewLimiter(10.0/60.0, 3), // 10/minute, burst 3
		"hydrorun_evaluate":     NewLimiter(20.0/60.0, 5), // 20/minute, burst 5
		"hydrorun_runs":         NewLimiter(1.0, 10),      // 60/minute, burst 10
	}
}

// CheckLimit returns an error when toolName is over its limit. Tools
// without a limiter are never throttled.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if !limiter.Allow(toolName) {
		return fmt.Errorf("rate limit exceeded for %s, please try again shortly", toolName)
	}
	return nil
}
