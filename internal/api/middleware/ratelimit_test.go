package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_PerKey(t *testing.T) {
	rl := NewRateLimiter(2)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("burst should allow the first two requests")
	}
	if rl.Allow("a") {
		t.Error("third request inside the window should be refused")
	}
	if !rl.Allow("b") {
		t.Error("other keys have their own bucket")
	}

	now = now.Add(30 * time.Second)
	if !rl.Allow("a") {
		t.Error("a token should have been refilled after 30s")
	}
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(10)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.Allow("a")
	now = now.Add(2 * time.Minute)
	rl.cleanup(time.Minute)

	if len(rl.entries) != 0 {
		t.Errorf("entries = %d, want 0", len(rl.entries))
	}
}

func TestRateLimitByIP(t *testing.T) {
	handler := RateLimitByIP(NewRateLimiter(1))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() int {
		req := httptest.NewRequest("POST", "/api/v1/auth/token", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := do(); got != http.StatusNoContent {
		t.Errorf("first request = %d", got)
	}
	if got := do(); got != http.StatusTooManyRequests {
		t.Errorf("second request = %d, want 429", got)
	}
}

func TestRateLimitByIP_IgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatal(err)
	}
	limited := RateLimitByIP(NewRateLimiter(2))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	handler := RealIP(proxies)(limited)

	allowed := 0
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("POST", "/api/v1/auth/token", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed = %d, want 2", allowed)
	}

	// Behind a trusted proxy each forwarded client has its own bucket.
	allowed = 0
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest("POST", "/api/v1/auth/token", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code == http.StatusNoContent {
			allowed++
		}
	}
	if allowed != 4 {
		t.Errorf("allowed behind proxy = %d, want 4", allowed)
	}
}

func TestTrustedProxies_Resolve(t *testing.T) {
	proxies, err := ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.1"})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "198.51.100.7:1234", "198.51.100.7"},
		{"bare remote", nil, "198.51.100.7", "198.51.100.7"},
		{"spoofed forwarded for", map[string]string{"X-Forwarded-For": "161.195.207.20"}, "203.0.113.9:1", "203.0.113.9"},
		{"spoofed real ip", map[string]string{"X-Real-IP": "161.195.207.20"}, "203.0.113.9:1", "203.0.113.9"},
		{"trusted forwarded for", map[string]string{"X-Forwarded-For": "161.195.207.20"}, "10.0.0.1:1", "161.195.207.20"},
		{"rightmost untrusted hop", map[string]string{"X-Forwarded-For": "1.1.1.1, 161.195.207.20, 10.0.0.2"}, "192.0.2.1:1", "161.195.207.20"},
		{"all hops trusted", map[string]string{"X-Forwarded-For": "10.0.0.3, 10.0.0.2"}, "10.0.0.1:1", "10.0.0.3"},
		{"trusted real ip", map[string]string{"X-Real-IP": "203.0.113.5"}, "10.0.0.1:1", "203.0.113.5"},
		{"garbage header", map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.1:1", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := proxies.Resolve(req); got != tt.want {
				t.Errorf("Resolve = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.9:1"
	req.Header.Set("X-Forwarded-For", "161.195.207.20")
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Errorf("ClientIP without RealIP = %q, want peer address", got)
	}

	var seen string
	handler := RealIP(&TrustedProxies{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "203.0.113.9" {
		t.Errorf("ClientIP = %q, want peer address", seen)
	}
}

func TestParseTrustedProxies(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"10.0.0.0/33"}); err == nil {
		t.Error("expected error for bad CIDR")
	}
	if _, err := ParseTrustedProxies([]string{"proxy.local"}); err == nil {
		t.Error("expected error for hostname")
	}
	p, err := ParseTrustedProxies([]string{" ", "::1"})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Contains("::1") || p.Contains("::2") {
		t.Error("single address should match exactly")
	}
	var none *TrustedProxies
	if none.Contains("10.0.0.1") {
		t.Error("nil set trusts nobody")
	}
}
