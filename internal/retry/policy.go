package retry

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"
)

// ErrorKind identifies a class of transient failure worth retrying.
type ErrorKind int

const (
	// KindTimeout matches stalled connections and request deadlines.
	KindTimeout ErrorKind = iota
	// KindConnReset matches dropped, refused and half-closed connections.
	KindConnReset
	// KindChunkRead matches truncated or interrupted body reads.
	KindChunkRead
	// KindTemporary matches throttling and transient upstream failures.
	KindTemporary
)

// kindKeywords maps each kind to the substrings that identify it anywhere
// in an error chain. Matching is case-insensitive.
var kindKeywords = map[ErrorKind][]string{
	KindTimeout:   {"timeout", "timed out"},
	KindConnReset: {"connection reset", "connection refused", "broken pipe", "econnreset"},
	KindChunkRead: {"chunk", "incomplete read", "unexpected eof"},
	KindTemporary: {"temporary", "service unavailable", "too many requests", "429", "502", "503", "504"},
}

// Strategy computes an uncapped delay for a retry attempt.
type Strategy interface {
	delay(base time.Duration, attempt int) time.Duration
}

// Exponential grows the delay geometrically: Base * Multiplier^attempt.
type Exponential struct {
	Base       time.Duration
	Multiplier float64
}

func (s Exponential) delay(_ time.Duration, attempt int) time.Duration {
	return time.Duration(float64(s.Base) * math.Pow(s.Multiplier, float64(attempt)))
}

// Linear grows the delay arithmetically: base + Increment*attempt.
type Linear struct {
	Increment time.Duration
}

func (s Linear) delay(base time.Duration, attempt int) time.Duration {
	return base + s.Increment*time.Duration(attempt)
}

// Fixed uses the same delay for every attempt.
type Fixed struct {
	Delay time.Duration
}

func (s Fixed) delay(time.Duration, int) time.Duration {
	return s.Delay
}

// Policy configures retry behavior for a logical operation.
type Policy struct {
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BaseDelay seeds the linear strategy and is the fallback delay.
	BaseDelay time.Duration
	// MaxDelay caps every computed delay, jittered or not.
	MaxDelay time.Duration
	// ChunkTimeout bounds a single chunk read during streaming.
	ChunkTimeout time.Duration
	// Strategy maps attempt index to delay.
	Strategy Strategy
	// RetryOn is the set of error kinds that trigger a retry.
	RetryOn []ErrorKind
}

// Default returns a general-purpose policy.
func Default() Policy {
	return Policy{
		MaxRetries:   3,
		BaseDelay:    time.Second,
		MaxDelay:     time.Minute,
		ChunkTimeout: 30 * time.Second,
		Strategy:     Exponential{Base: time.Second, Multiplier: 2},
		RetryOn:      []ErrorKind{KindTimeout, KindConnReset, KindChunkRead, KindTemporary},
	}
}

// ForNetwork returns the policy used for download operations:
// 5 retries, 1s exponential backoff doubling per attempt, capped at 30s.
func ForNetwork() Policy {
	p := Default()
	p.MaxRetries = 5
	p.MaxDelay = 30 * time.Second
	return p
}

// Delay returns the capped delay for the given attempt index (0-based).
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	if p.Strategy != nil {
		d = p.Strategy.delay(p.BaseDelay, attempt)
	}
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d < 0 {
		d = 0
	}
	return d
}

// JitteredDelay perturbs Delay(attempt) by a uniform ±25% offset to avoid
// synchronized retry storms. The result stays within [0, MaxDelay].
func (p Policy) JitteredDelay(attempt int) time.Duration {
	base := p.Delay(attempt)
	ms := base.Milliseconds()
	if ms == 0 {
		return base
	}

	span := ms / 4
	if span < 1 {
		span = 1
	}
	offset := rand.Int63n(2*span+1) - span

	d := time.Duration(ms+offset) * time.Millisecond
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	if d < 0 {
		d = 0
	}
	return d
}

// ShouldRetry reports whether err matches any enabled retry kind.
// The whole unwrap chain is inspected, not just the top-level message.
func (p Policy) ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	for _, msg := range chainMessages(err) {
		for _, kind := range p.RetryOn {
			for _, kw := range kindKeywords[kind] {
				if strings.Contains(msg, kw) {
					return true
				}
			}
		}
	}
	return false
}

func chainMessages(err error) []string {
	var msgs []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		msgs = append(msgs, strings.ToLower(e.Error()))
	}
	return msgs
}
