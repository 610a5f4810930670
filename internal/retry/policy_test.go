package retry

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestShouldRetry(t *testing.T) {
	p := Default()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"timeout", errors.New("context deadline exceeded: timeout"), true},
		{"timed out", errors.New("read timed out"), true},
		{"connection reset", errors.New("read tcp 1.2.3.4: connection reset by peer"), true},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"unexpected eof", errors.New("unexpected EOF"), true},
		{"chunk read", errors.New("failed to read download chunk: boom"), true},
		{"service unavailable", errors.New("503 Service Unavailable"), true},
		{"too many requests", errors.New("429 Too Many Requests"), true},
		{"not found", errors.New("download failed with status: 404 Not Found"), false},
		{"permission denied", errors.New("open /etc/x: permission denied"), false},
		{"plain failure", errors.New("something else went wrong"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.ShouldRetry(tt.err); got != tt.want {
				t.Errorf("ShouldRetry(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestShouldRetryInspectsWrappedChain(t *testing.T) {
	p := Default()

	inner := errors.New("connection reset by peer")
	wrapped := fmt.Errorf("request failed: %w", fmt.Errorf("attempt 3: %w", inner))
	if !p.ShouldRetry(wrapped) {
		t.Error("expected wrapped connection reset to be retryable")
	}
}

func TestShouldRetryHonorsRetryOn(t *testing.T) {
	p := Default()
	p.RetryOn = []ErrorKind{KindTimeout}

	if p.ShouldRetry(errors.New("connection reset by peer")) {
		t.Error("connection reset should not retry when only timeouts are enabled")
	}
	if !p.ShouldRetry(errors.New("request timed out")) {
		t.Error("timeout should retry when timeouts are enabled")
	}

	p.RetryOn = nil
	if p.ShouldRetry(errors.New("request timed out")) {
		t.Error("nothing retries with an empty kind set")
	}
}

func TestDelayStrategies(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{
			"exponential first attempt",
			Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Strategy: Exponential{Base: time.Second, Multiplier: 2}},
			0, time.Second,
		},
		{
			"exponential third attempt",
			Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Strategy: Exponential{Base: time.Second, Multiplier: 2}},
			2, 4 * time.Second,
		},
		{
			"exponential capped",
			Policy{BaseDelay: time.Second, MaxDelay: 10 * time.Second, Strategy: Exponential{Base: time.Second, Multiplier: 2}},
			6, 10 * time.Second,
		},
		{
			"linear growth",
			Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Strategy: Linear{Increment: 500 * time.Millisecond}},
			3, 2500 * time.Millisecond,
		},
		{
			"fixed delay",
			Policy{BaseDelay: time.Second, MaxDelay: time.Minute, Strategy: Fixed{Delay: 2 * time.Second}},
			9, 2 * time.Second,
		},
		{
			"nil strategy falls back to base",
			Policy{BaseDelay: 3 * time.Second, MaxDelay: time.Minute},
			5, 3 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.Delay(tt.attempt); got != tt.want {
				t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}

func TestJitteredDelayStaysInBounds(t *testing.T) {
	p := ForNetwork()

	for attempt := 0; attempt < 8; attempt++ {
		base := p.Delay(attempt)
		lo := base - base/4 - time.Millisecond
		hi := base + base/4 + time.Millisecond
		if hi > p.MaxDelay {
			hi = p.MaxDelay
		}
		for i := 0; i < 200; i++ {
			d := p.JitteredDelay(attempt)
			if d < 0 || d < lo || d > hi {
				t.Fatalf("JitteredDelay(%d) = %v outside [%v, %v]", attempt, d, lo, hi)
			}
		}
	}
}

func TestJitteredDelayZeroBase(t *testing.T) {
	p := Policy{BaseDelay: 0, MaxDelay: time.Minute, Strategy: Fixed{Delay: 0}}
	if d := p.JitteredDelay(0); d != 0 {
		t.Errorf("JitteredDelay with zero base = %v, want 0", d)
	}
}

func TestForNetworkDefaults(t *testing.T) {
	p := ForNetwork()
	if p.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", p.MaxRetries)
	}
	if p.MaxDelay != 30*time.Second {
		t.Errorf("MaxDelay = %v, want 30s", p.MaxDelay)
	}
	if p.ChunkTimeout != 30*time.Second {
		t.Errorf("ChunkTimeout = %v, want 30s", p.ChunkTimeout)
	}
}
