package ratelimiter

import (
	"net/http"
	"sync"
	"time"
)

const defaultSourceKey = "X-RateLimit-Key"

type Limiter interface {
	Allow(sourceKey string) bool
	GetSourceKey(r *http.Request) string
	Remaining(sourceKey string) int
	GetMaxBurst() int
}

type bucket struct {
	tokens   float64
	lastFill time.Time
}

// TokenBucket refills each source's bucket continuously at the
// configured rate, up to maxBurst. Idle buckets are evicted so the map
// does not grow with one entry per client ever seen.
type TokenBucket struct {
	ratePerSecond   float64
	maxBurst        int
	idleTTL         time.Duration
	sourceHeaderKey string

	mu      sync.Mutex
	buckets map[string]*bucket

	stopClean chan struct{}
	cleanOnce sync.Once
}

type Options struct {
	MaxRatePerSecond int
	MaxBurst         int
	IdleTTL          time.Duration
	SourceHeaderKey  string
}

func New(options Options) *TokenBucket {
	if options.MaxBurst <= 0 {
		options.MaxBurst = options.MaxRatePerSecond
	}
	if options.IdleTTL <= 0 {
		options.IdleTTL = 10 * time.Second
	}
	if options.SourceHeaderKey == "" {
		options.SourceHeaderKey = defaultSourceKey
	}

	tb := &TokenBucket{
		ratePerSecond:   float64(options.MaxRatePerSecond),
		maxBurst:        options.MaxBurst,
		idleTTL:         options.IdleTTL,
		sourceHeaderKey: options.SourceHeaderKey,
		buckets:         make(map[string]*bucket),
		stopClean:       make(chan struct{}),
	}

	go tb.cleanupIdle()

	return tb
}

// refill must be called with the lock held.
func (tb *TokenBucket) refill(sourceKey string, now time.Time) *bucket {
	b, ok := tb.buckets[sourceKey]
	if !ok {
		b = &bucket{tokens: float64(tb.maxBurst), lastFill: now}
		tb.buckets[sourceKey] = b
		return b
	}

	elapsed := now.Sub(b.lastFill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * tb.ratePerSecond
		if b.tokens > float64(tb.maxBurst) {
			b.tokens = float64(tb.maxBurst)
		}
		b.lastFill = now
	}

	return b
}

func (tb *TokenBucket) Allow(sourceKey string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	b := tb.refill(sourceKey, time.Now())
	if b.tokens < 1 {
		return false
	}

	b.tokens--
	return true
}

func (tb *TokenBucket) Remaining(sourceKey string) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	return int(tb.refill(sourceKey, time.Now()).tokens)
}

func (tb *TokenBucket) GetMaxBurst() int {
	return tb.maxBurst
}

func (tb *TokenBucket) GetSourceKey(r *http.Request) string {
	if key := r.Header.Get(tb.sourceHeaderKey); key != "" {
		return key
	}

	return r.RemoteAddr
}

func (tb *TokenBucket) cleanupIdle() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tb.removeIdle()
		case <-tb.stopClean:
			return
		}
	}
}

func (tb *TokenBucket) removeIdle() {
	now := time.Now()

	tb.mu.Lock()
	defer tb.mu.Unlock()

	for key, b := range tb.buckets {
		if now.Sub(b.lastFill) > tb.idleTTL {
			delete(tb.buckets, key)
		}
	}
}

func (tb *TokenBucket) Close() error {
	tb.cleanOnce.Do(func() {
		close(tb.stopClean)
	})
	return nil
}
