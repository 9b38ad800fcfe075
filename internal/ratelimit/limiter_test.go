package ratelimit

import (
	"net/http"
	"sync"
	"testing"
	"time"
)

// mockClock is a controllable clock for testing.
type mockClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *mockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestAllow_UserLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{PerUser: 3, PerIP: 100, Window: time.Minute, Clock: clock})
	defer limiter.Close()

	for i := 0; i < 3; i++ {
		clock.Advance(time.Second)
		if result := limiter.Allow("alice", "192.168.1.1"); !result.Allowed {
			t.Fatalf("attempt %d should be allowed, got blocked: %s", i+1, result.Reason)
		}
	}

	clock.Advance(time.Second)
	result := limiter.Allow("alice", "192.168.1.1")
	if result.Allowed {
		t.Fatal("4th attempt should be blocked")
	}
	if result.Reason != "user_limit" {
		t.Errorf("Expected reason 'user_limit', got '%s'", result.Reason)
	}
	if result.RetryAfter != 57*time.Second {
		t.Errorf("Expected RetryAfter 57s, got %v", result.RetryAfter)
	}

	// Another user on the same IP is unaffected
	if result := limiter.Allow("bob", "192.168.1.1"); !result.Allowed {
		t.Errorf("other user should be allowed, got blocked: %s", result.Reason)
	}

	clock.Advance(result.RetryAfter)
	if result := limiter.Allow("alice", "192.168.1.1"); !result.Allowed {
		t.Errorf("attempt after window should be allowed, got blocked: %s", result.Reason)
	}
}

func TestAllow_IPLimit(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{PerUser: 100, PerIP: 2, Window: time.Minute, Clock: clock})
	defer limiter.Close()

	ip := "192.168.1.3"
	for _, user := range []string{"usera", "userb"} {
		if result := limiter.Allow(user, ip); !result.Allowed {
			t.Fatalf("%s should be allowed, got blocked: %s", user, result.Reason)
		}
	}

	result := limiter.Allow("userc", ip)
	if result.Allowed {
		t.Fatal("3rd attempt from same IP should be blocked")
	}
	if result.Reason != "ip_limit" {
		t.Errorf("Expected reason 'ip_limit', got '%s'", result.Reason)
	}
}

func TestAllow_RejectedAttemptsAreNotCounted(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{PerUser: 1, PerIP: 100, Window: time.Minute, Clock: clock})
	defer limiter.Close()

	limiter.Allow("alice", "10.0.0.1")
	for i := 0; i < 5; i++ {
		clock.Advance(10 * time.Second)
		if limiter.Allow("alice", "10.0.0.1").Allowed {
			t.Fatalf("attempt %d should be blocked", i+2)
		}
	}
	clock.Advance(10 * time.Second)
	if result := limiter.Allow("alice", "10.0.0.1"); !result.Allowed {
		t.Fatalf("attempt after window should be allowed, got %s", result.Reason)
	}
}

func TestAllow_KeyNormalization(t *testing.T) {
	limiter := New(&Config{PerUser: 1, PerIP: 100, Clock: newMockClock()})
	defer limiter.Close()

	limiter.Allow("Alice", "192.168.1.1")
	if limiter.Allow("  ALICE ", "192.168.1.1").Allowed {
		t.Error("keys differing only in case should share a window")
	}
}

func TestAllow_ZeroLimitsDisable(t *testing.T) {
	limiter := New(&Config{Clock: newMockClock()})
	defer limiter.Close()

	for i := 0; i < 50; i++ {
		if !limiter.Allow("alice", "192.168.1.1").Allowed {
			t.Fatalf("attempt %d should be allowed with limits disabled", i+1)
		}
	}
}

func TestGetClientIP_TrustProxy(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		trustProxy bool
		expected   string
	}{
		{
			name:       "TrustProxy=true, XFF rightmost public IP",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.50", // Rightmost non-private
		},
		{
			name:       "TrustProxy=true, XFF all private",
			headers:    map[string]string{"X-Forwarded-For": "192.168.1.1, 10.0.0.1"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "10.0.0.1", // Last one when all private
		},
		{
			name:       "TrustProxy=true, X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "10.0.0.1:12345",
			trustProxy: true,
			expected:   "203.0.113.51",
		},
		{
			name:       "TrustProxy=false, ignores XFF",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.50"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100", // Uses RemoteAddr, ignores spoofed XFF
		},
		{
			name:       "TrustProxy=false, ignores X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.51"},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
		{
			name:       "No headers, RemoteAddr only",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100:54321",
			trustProxy: true,
			expected:   "192.168.1.100",
		},
		{
			name:       "RemoteAddr without port",
			headers:    map[string]string{},
			remoteAddr: "192.168.1.100",
			trustProxy: false,
			expected:   "192.168.1.100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := GetClientIP(r, tt.trustProxy)
			if got != tt.expected {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestGetClientIP_SpoofingPrevention(t *testing.T) {
	// Attacker sends fake X-Forwarded-For header
	r, _ := http.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", "1.2.3.4") // Attacker-supplied
	r.RemoteAddr = "192.168.1.100:54321"       // Real connection

	// With TrustProxy=false, the fake header is ignored
	got := GetClientIP(r, false)
	if got != "192.168.1.100" {
		t.Errorf("Should ignore X-Forwarded-For when TrustProxy=false, got %q", got)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.PerUser != 20 {
		t.Errorf("PerUser = %d, want 20", cfg.PerUser)
	}
	if cfg.PerIP != 120 {
		t.Errorf("PerIP = %d, want 120", cfg.PerIP)
	}
	if cfg.Window != time.Minute {
		t.Errorf("Window = %v, want 1m", cfg.Window)
	}
}

func TestNew_NilConfig(t *testing.T) {
	limiter := New(nil)
	defer limiter.Close()

	if limiter.config.PerUser != 20 {
		t.Error("New(nil) should use default config")
	}
}

func TestLimiter_Close(t *testing.T) {
	limiter := New(nil)

	// Trigger cleanup goroutine
	limiter.Allow("alice", "1.2.3.4")

	done := make(chan struct{})
	go func() {
		limiter.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Error("Close() should not hang")
	}
}

func TestCleanupDropsExpiredWindows(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{PerUser: 5, PerIP: 5, Window: time.Minute, Clock: clock})
	defer limiter.Close()

	limiter.Allow("alice", "1.2.3.4")
	clock.Advance(2 * time.Minute)
	limiter.cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	if len(limiter.byUser) != 0 || len(limiter.byIP) != 0 {
		t.Errorf("expected empty maps after cleanup, got %d users and %d ips", len(limiter.byUser), len(limiter.byIP))
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newMockClock()
	limiter := New(&Config{PerUser: 50, PerIP: 1000, Clock: clock})
	defer limiter.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if limiter.Allow("shared", "192.168.1.1").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed attempts, got %d", allowed)
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip       string
		expected bool
	}{
		// IPv4 private ranges
		{"10.0.0.1", true},
		{"10.255.255.255", true},
		{"172.16.0.1", true},
		{"172.31.255.255", true},
		{"192.168.1.1", true},
		{"192.168.255.255", true},
		{"127.0.0.1", true},
		// IPv6 private/reserved
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true}, // Link-local
		// IPv4-mapped IPv6 addresses (must match their IPv4 equivalents)
		{"::ffff:10.0.0.1", true},
		{"::ffff:192.168.1.1", true},
		{"::ffff:172.16.0.1", true},
		{"::ffff:127.0.0.1", true},
		{"::ffff:8.8.8.8", false},   // Public IP in IPv4-mapped format
		{"::ffff:1.1.1.1", false},   // Public IP in IPv4-mapped format
		// Public IPs
		{"203.0.113.50", false},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2001:4860:4860::8888", false}, // Google DNS IPv6
		// Invalid
		{"invalid", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			got := isPrivateIP(tt.ip)
			if got != tt.expected {
				t.Errorf("isPrivateIP(%q) = %v, want %v", tt.ip, got, tt.expected)
			}
		})
	}
}
