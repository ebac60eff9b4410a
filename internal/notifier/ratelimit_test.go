package notifier

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(max int, window time.Duration) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(RateLimitConfig{MaxPerWindow: max, Window: window, Enabled: true})
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiterBasic(t *testing.T) {
	rl, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow() {
		t.Error("4th request should be denied")
	}
	if got := rl.Stats().Dropped; got != 1 {
		t.Errorf("Dropped = %d, want 1", got)
	}
}

func TestRateLimiterSlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(2, time.Minute)

	rl.Allow()
	clock.Advance(40 * time.Second)
	rl.Allow()
	if rl.Allow() {
		t.Fatal("window should be full")
	}

	// The first slot expires; the second is still inside the window.
	clock.Advance(30 * time.Second)
	if !rl.Allow() {
		t.Error("a slot should be free after the first entry expired")
	}
	if rl.Allow() {
		t.Error("window should be full again")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxPerWindow: 1, Window: time.Minute, Enabled: false})
	for i := 0; i < 100; i++ {
		if !rl.Allow() {
			t.Fatal("disabled limiter should allow everything")
		}
	}
}

func TestRateLimiterRelease(t *testing.T) {
	rl, _ := newTestLimiter(1, time.Minute)

	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}
	rl.Release()
	if !rl.Allow() {
		t.Error("released slot should be reusable")
	}

	empty, _ := newTestLimiter(1, time.Minute)
	empty.Release()
	if got := empty.Stats().CurrentCount; got != 0 {
		t.Errorf("CurrentCount = %d, want 0", got)
	}
}

func TestNewRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{Enabled: true})
	stats := rl.Stats()
	if stats.MaxPerWindow != 30 || stats.Window != time.Minute {
		t.Errorf("defaults = %d/%v", stats.MaxPerWindow, stats.Window)
	}
}

func TestRateLimiterConcurrentAccess(t *testing.T) {
	rl, _ := newTestLimiter(50, time.Minute)

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("allowed = %d, want 50", allowed)
	}
}
