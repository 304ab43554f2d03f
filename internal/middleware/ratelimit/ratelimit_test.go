package ratelimit

import (
	"testing"
	"time"
)

func TestAllow_WithinBudget(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3, CleanupInterval: time.Minute})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("request over budget should be denied")
	}
}

func TestAllow_ClientsAreIndependent(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first client should be allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("second client has its own budget")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("first client is over budget")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, CleanupInterval: time.Minute})
	defer rl.Stop()

	rl.Allow("10.0.0.1")
	// Backdate the last request past the window.
	rl.mu.Lock()
	rl.clients["10.0.0.1"].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("budget should reset after a minute of inactivity")
	}
}
