package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/securechat/server/core"
	"github.com/securechat/server/ports"
)

const (
	// MaxFailures is the number of consecutive failures before lockout
	MaxFailures = 5

	// LockoutDuration is how long a lockout lasts once triggered
	LockoutDuration = 15 * time.Minute
)

// record tracks consecutive failures for one client key
type record struct {
	failures    int
	lockedUntil time.Time // zero while not locked
}

// MemoryLimiter is an in-memory implementation of the RateLimiter
// interface. State lives for the process lifetime only; a restart
// clears all lockouts.
type MemoryLimiter struct {
	mu      sync.Mutex
	records map[string]*record

	maxFailures int
	lockout     time.Duration
	now         func() time.Time
}

// NewMemoryLimiter creates a new MemoryLimiter with the default
// threshold and lockout window.
func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		records:     make(map[string]*record),
		maxFailures: MaxFailures,
		lockout:     LockoutDuration,
		now:         time.Now,
	}
}

var _ ports.RateLimiter = (*MemoryLimiter)(nil)

// CheckAllowed returns core.ErrRateLimited while key is locked out.
// An expired lockout clears the whole record, failures included.
func (l *MemoryLimiter) CheckAllowed(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok || rec.lockedUntil.IsZero() {
		return nil
	}

	if l.now().Before(rec.lockedUntil) {
		return core.ErrRateLimited
	}

	delete(l.records, key)
	return nil
}

// RecordFailure increments the failure counter for key and, at the
// threshold, starts a lockout. Later failures extend the lockout.
func (l *MemoryLimiter) RecordFailure(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		rec = &record{}
		l.records[key] = rec
	}

	rec.failures++
	if rec.failures >= l.maxFailures {
		rec.lockedUntil = l.now().Add(l.lockout)
	}

	return nil
}

// RecordSuccess clears any failures and lockout for key.
func (l *MemoryLimiter) RecordSuccess(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, key)
	return nil
}
