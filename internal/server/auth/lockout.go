package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Lockout counts failed logins per identity and blocks further attempts once
// the limit is reached within the window.
type Lockout interface {
	// Allowed reports whether another attempt may be made.
	Allowed(ctx context.Context, id string) (bool, error)
	// RecordFailure counts one failed attempt and reports whether the
	// identity is now locked.
	RecordFailure(ctx context.Context, id string) (bool, error)
	// Reset clears the counter after a successful login.
	Reset(ctx context.Context, id string) error
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

type attempt struct {
	count       int
	windowStart time.Time
}

// MemoryLockout is a process-local Lockout with a fixed window that starts at
// the first failure.
type MemoryLockout struct {
	mu          sync.Mutex
	attempts    map[string]*attempt
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

func NewMemoryLockout(maxAttempts int, window time.Duration) *MemoryLockout {
	return &MemoryLockout{
		attempts:    make(map[string]*attempt),
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}
}

// current returns the live attempt record, dropping an expired one. Must be
// called with l.mu held.
func (l *MemoryLockout) current(id string) *attempt {
	a, ok := l.attempts[id]
	if !ok {
		return nil
	}
	if l.now().After(a.windowStart.Add(l.window)) {
		delete(l.attempts, id)
		return nil
	}
	return a
}

func (l *MemoryLockout) Allowed(_ context.Context, id string) (bool, error) {
	if l.maxAttempts <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a := l.current(normalizeID(id))
	return a == nil || a.count < l.maxAttempts, nil
}

func (l *MemoryLockout) RecordFailure(_ context.Context, id string) (bool, error) {
	if l.maxAttempts <= 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	id = normalizeID(id)
	a := l.current(id)
	if a == nil {
		a = &attempt{windowStart: l.now()}
		l.attempts[id] = a
	}
	a.count++
	return a.count >= l.maxAttempts, nil
}

func (l *MemoryLockout) Reset(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.attempts, normalizeID(id))
	return nil
}
