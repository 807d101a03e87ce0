package middleware

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiterConfig configures a KeyedLimiter.
type RateLimiterConfig struct {
	Rate            rate.Limit    // tokens per second
	Burst           int           // bucket size
	CleanupInterval time.Duration // how often idle keys are dropped
}

// AuthRateLimiterConfig allows perMinute attempts per key with the given burst.
func AuthRateLimiterConfig(perMinute, burst int) RateLimiterConfig {
	if perMinute <= 0 {
		perMinute = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return RateLimiterConfig{
		Rate:            rate.Limit(float64(perMinute) / 60.0),
		Burst:           burst,
		CleanupInterval: 5 * time.Minute,
	}
}

// keyLimiter holds a limiter and when it was last used.
type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// KeyedLimiter keeps one token bucket per key. It implements
// travito.RateLimiter; the auth handlers key it by client address and email.
type KeyedLimiter struct {
	config RateLimiterConfig

	mu       sync.Mutex
	limiters map[string]*keyLimiter

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewKeyedLimiter starts a background goroutine that drops idle keys.
// Call Stop to end it.
func NewKeyedLimiter(config RateLimiterConfig) *KeyedLimiter {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}
	kl := &KeyedLimiter{
		config:   config,
		limiters: make(map[string]*keyLimiter),
		stopCh:   make(chan struct{}),
	}
	go kl.cleanupLoop()
	return kl
}

func (kl *KeyedLimiter) Stop() {
	kl.stopOnce.Do(func() { close(kl.stopCh) })
}

// Allow reports whether one more attempt for key fits in its bucket.
func (kl *KeyedLimiter) Allow(key string) bool {
	kl.mu.Lock()
	entry, ok := kl.limiters[key]
	if !ok {
		entry = &keyLimiter{limiter: rate.NewLimiter(kl.config.Rate, kl.config.Burst)}
		kl.limiters[key] = entry
	}
	entry.lastAccess = time.Now()
	kl.mu.Unlock()

	if !entry.limiter.Allow() {
		slog.Warn("rate limit exceeded", slog.String("key", key))
		return false
	}
	return true
}

// Len returns the number of tracked keys. For tests and metrics.
func (kl *KeyedLimiter) Len() int {
	kl.mu.Lock()
	defer kl.mu.Unlock()
	return len(kl.limiters)
}

func (kl *KeyedLimiter) cleanupLoop() {
	ticker := time.NewTicker(kl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			kl.cleanup(time.Now())
		case <-kl.stopCh:
			return
		}
	}
}

// cleanup drops keys idle for more than twice the cleanup interval.
func (kl *KeyedLimiter) cleanup(now time.Time) {
	ttl := kl.config.CleanupInterval * 2

	kl.mu.Lock()
	defer kl.mu.Unlock()
	for key, l := range kl.limiters {
		if now.Sub(l.lastAccess) > ttl {
			delete(kl.limiters, key)
		}
	}
}
