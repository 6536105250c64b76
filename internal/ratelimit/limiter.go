// Package ratelimit throttles repeated failed dashboard logins
package ratelimit

import (
	"sync"
	"time"
)

// Level represents the level a failure is counted at
type Level string

const (
	LevelIP      Level = "ip"
	LevelAccount Level = "account"
)

// Config contains rate limit configuration
type Config struct {
	FailuresPerIP      int // 0 disables the per-IP limit
	FailuresPerAccount int // 0 disables the per-account limit
	Window             time.Duration
}

// Counter tracks failures inside one window
type Counter struct {
	Count       int
	WindowStart time.Time
}

// maxCounters bounds memory; expired counters are pruned past it
const maxCounters = 10000

// Limiter counts failed logins per client IP and per account
type Limiter struct {
	config   Config
	counters map[string]*Counter // key -> counter
	mu       sync.Mutex
	now      func() time.Time
}

// Request identifies a login attempt
type Request struct {
	IP      string
	Account string
}

// Result contains the rate limit check result
type Result struct {
	Allowed    bool
	DeniedBy   Level
	RetryAfter time.Duration
}

// NewLimiter creates a new login limiter
func NewLimiter(cfg Config) *Limiter {
	if cfg.Window <= 0 {
		cfg.Window = 15 * time.Minute
	}
	return &Limiter{
		config:   cfg,
		counters: make(map[string]*Counter),
		now:      time.Now,
	}
}

// Check reports whether another attempt is allowed without counting it
func (l *Limiter) Check(req Request) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for _, check := range l.getChecks(req) {
		counter, exists := l.counters[check.key]
		if !exists || now.Sub(counter.WindowStart) >= l.config.Window {
			continue
		}
		if counter.Count >= check.limit {
			return Result{
				DeniedBy:   check.level,
				RetryAfter: counter.WindowStart.Add(l.config.Window).Sub(now),
			}
		}
	}
	return Result{Allowed: true}
}

// Fail records a failed attempt
func (l *Limiter) Fail(req Request) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.counters) >= maxCounters {
		l.prune(now)
	}
	for _, check := range l.getChecks(req) {
		counter, exists := l.counters[check.key]
		if !exists || now.Sub(counter.WindowStart) >= l.config.Window {
			counter = &Counter{WindowStart: now}
			l.counters[check.key] = counter
		}
		counter.Count++
	}
}

// Reset forgets the account's failures after a successful login; the IP
// counter is kept.
func (l *Limiter) Reset(req Request) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if req.Account != "" {
		delete(l.counters, makeKey(LevelAccount, req.Account))
	}
}

// prune drops expired counters; the caller holds the lock
func (l *Limiter) prune(now time.Time) int {
	n := 0
	for key, counter := range l.counters {
		if now.Sub(counter.WindowStart) >= l.config.Window {
			delete(l.counters, key)
			n++
		}
	}
	return n
}

type limitCheck struct {
	level Level
	key   string
	limit int
}

func (l *Limiter) getChecks(req Request) []limitCheck {
	var checks []limitCheck

	if req.IP != "" && l.config.FailuresPerIP > 0 {
		checks = append(checks, limitCheck{
			level: LevelIP,
			key:   makeKey(LevelIP, req.IP),
			limit: l.config.FailuresPerIP,
		})
	}

	if req.Account != "" && l.config.FailuresPerAccount > 0 {
		checks = append(checks, limitCheck{
			level: LevelAccount,
			key:   makeKey(LevelAccount, req.Account),
			limit: l.config.FailuresPerAccount,
		})
	}

	return checks
}

func makeKey(level Level, key string) string {
	return string(level) + ":" + key
}
