package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/turtacn/NMReportChecker/pkg/errors"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state reported in response headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// ClientIPKey keys requests by client host.  chi's RealIP middleware has
// already replaced RemoteAddr with the forwarded address when present.
func ClientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type tokenBucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is an in-memory token bucket per key.
type TokenBucketLimiter struct {
	rate      float64
	burstSize int
	idleTTL   time.Duration
	now       func() time.Time

	mu      sync.Mutex
	buckets map[string]*tokenBucket
	stop    chan struct{}
	once    sync.Once
}

// NewTokenBucketLimiter creates a limiter allowing rate requests per second
// with bursts of burstSize.  Buckets idle for longer than idleTTL are
// dropped by a background sweep; a zero idleTTL disables the sweep.
func NewTokenBucketLimiter(rate float64, burstSize int, idleTTL time.Duration) *TokenBucketLimiter {
	l := newTokenBucketLimiter(rate, burstSize, idleTTL, time.Now)
	if idleTTL > 0 {
		go l.sweepLoop()
	}
	return l
}

func newTokenBucketLimiter(rate float64, burstSize int, idleTTL time.Duration, now func() time.Time) *TokenBucketLimiter {
	if burstSize < 1 {
		burstSize = 1
	}
	return &TokenBucketLimiter{
		rate:      rate,
		burstSize: burstSize,
		idleTTL:   idleTTL,
		now:       now,
		buckets:   make(map[string]*tokenBucket),
		stop:      make(chan struct{}),
	}
}

// Allow takes one token from key's bucket if one is available.
func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: float64(l.burstSize), lastRefill: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burstSize) {
		b.tokens = float64(l.burstSize)
	}
	b.lastRefill = now

	info := RateLimitInfo{Limit: l.burstSize, ResetAt: now.Add(l.refillDelay(b.tokens))}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}
	return false, info
}

// refillDelay is the time until the bucket holds one whole token again.
func (l *TokenBucketLimiter) refillDelay(tokens float64) time.Duration {
	if l.rate <= 0 {
		return time.Hour
	}
	missing := 1 - tokens
	if missing < 0 {
		missing = 0
	}
	return time.Duration(missing / l.rate * float64(time.Second))
}

func (l *TokenBucketLimiter) sweepLoop() {
	ticker := time.NewTicker(l.idleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

func (l *TokenBucketLimiter) sweep() {
	threshold := l.now().Add(-l.idleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastRefill.Before(threshold) {
			delete(l.buckets, key)
		}
	}
}

// BucketCount returns the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the background sweep.  It is safe to call more than once.
func (l *TokenBucketLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// RateLimit returns middleware that rejects requests over the limit with
// 429 and a Retry-After header.  A nil keyFunc keys by client IP.
func RateLimit(limiter RateLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	if keyFunc == nil {
		keyFunc = ClientIPKey
	}
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, info := limiter.Allow(keyFunc(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !ok {
				retryAfter := int(time.Until(info.ResetAt).Seconds() + 0.999)
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, errors.ErrCodeTooManyRequests, "rate limit exceeded, retry later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
