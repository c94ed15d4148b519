package httpx

import (
	"testing"
	"time"
)

func TestMemoryRateLimiterWindow(t *testing.T) {
	rl := NewMemoryRateLimiter()
	defer rl.Close()

	for i := 1; i <= 3; i++ {
		d := rl.Allow("ip:192.0.2.1", 3, time.Minute)
		if !d.allowed || d.count != i {
			t.Fatalf("attempt %d: expected allowed with count %d, got %+v", i, i, d)
		}
	}
	if d := rl.Allow("ip:192.0.2.1", 3, time.Minute); d.allowed {
		t.Fatalf("expected denial past the limit, got %+v", d)
	}
	if d := rl.Allow("ip:192.0.2.2", 3, time.Minute); !d.allowed {
		t.Fatalf("expected an independent key to pass, got %+v", d)
	}
}

func TestMemoryRateLimiterCloseIsIdempotent(t *testing.T) {
	rl := NewMemoryRateLimiter()
	rl.Close()
	rl.Close()
}
