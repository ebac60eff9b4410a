package auth

import (
	"strings"
	"sync"
	"time"
)

type lockoutEntry struct {
	failures  int
	lockedAt  time.Time
	expiresAt time.Time
}

func (e *lockoutEntry) locked(now time.Time) bool {
	return !e.lockedAt.IsZero() && now.Before(e.expiresAt)
}

// LockoutTracker counts failed sign-ins per key (normalized email) and locks
// the key for a fixed duration once the threshold is reached.
//
// State lives in memory only; a restart clears every lockout.
type LockoutTracker struct {
	mu              sync.Mutex
	entries         map[string]*lockoutEntry
	threshold       int
	lockoutDuration time.Duration
	now             func() time.Time
}

// NewLockoutTracker creates a new lockout tracker.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	if threshold <= 0 {
		threshold = 5
	}
	if duration <= 0 {
		duration = 15 * time.Minute
	}
	return &LockoutTracker{
		entries:         make(map[string]*lockoutEntry),
		threshold:       threshold,
		lockoutDuration: duration,
		now:             time.Now,
	}
}

func lockoutKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// RecordFailure records a failed attempt and reports whether key is now locked.
func (t *LockoutTracker) RecordFailure(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.prune(now)

	key = lockoutKey(key)
	entry, ok := t.entries[key]
	if !ok {
		entry = &lockoutEntry{}
		t.entries[key] = entry
	}
	if entry.locked(now) {
		return true
	}
	if !entry.lockedAt.IsZero() {
		*entry = lockoutEntry{}
	}

	entry.failures++
	if entry.failures >= t.threshold {
		entry.lockedAt = now
		entry.expiresAt = now.Add(t.lockoutDuration)
		return true
	}
	return false
}

// IsLocked returns true if key is currently locked.
func (t *LockoutTracker) IsLocked(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[lockoutKey(key)]
	return ok && entry.locked(t.now())
}

// RemainingLockoutTime returns how long until the lockout on key expires.
func (t *LockoutTracker) RemainingLockoutTime(key string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[lockoutKey(key)]
	if !ok || entry.lockedAt.IsZero() {
		return 0
	}
	if remaining := entry.expiresAt.Sub(t.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// ClearFailures forgets key after a successful sign-in.
func (t *LockoutTracker) ClearFailures(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, lockoutKey(key))
}

// prune drops expired lockouts. Caller holds t.mu.
func (t *LockoutTracker) prune(now time.Time) {
	for key, entry := range t.entries {
		if !entry.lockedAt.IsZero() && !entry.locked(now) {
			delete(t.entries, key)
		}
	}
}
