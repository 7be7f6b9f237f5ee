package api

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		if allowed, _ := rl.Allow("client", 5); !allowed {
			t.Fatalf("request %d rejected inside the limit", i+1)
		}
	}

	allowed, retryAfter := rl.Allow("client", 5)
	if allowed {
		t.Error("sixth request allowed past a limit of 5")
	}
	if retryAfter <= 0 || retryAfter > time.Minute {
		t.Errorf("retryAfter = %v, want within (0, 1m]", retryAfter)
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(time.Minute)
	defer rl.Stop()

	if allowed, _ := rl.Allow("a", 1); !allowed {
		t.Fatal("first request for a rejected")
	}
	if allowed, _ := rl.Allow("a", 1); allowed {
		t.Error("second request for a allowed past a limit of 1")
	}
	if allowed, _ := rl.Allow("b", 1); !allowed {
		t.Error("request for b throttled by a's window")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(10 * time.Millisecond)
	defer rl.Stop()

	if allowed, _ := rl.Allow("client", 1); !allowed {
		t.Fatal("first request rejected")
	}
	if allowed, _ := rl.Allow("client", 1); allowed {
		t.Fatal("second request allowed inside the window")
	}

	time.Sleep(20 * time.Millisecond)

	if allowed, _ := rl.Allow("client", 1); !allowed {
		t.Error("request rejected after the window expired")
	}
}
