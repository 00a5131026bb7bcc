package apiv1

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateLimiter keeps a token bucket per client key.
type rateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{limits: make(map[string]*rate.Limiter)}
}

func (rl *rateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limits[key]; ok {
		return limiter
	}

	// 5 requests per second, with burst of 10: conversational turns are
	// slow anyway, this only guards against tight client loops.
	limiter := rate.NewLimiter(rate.Every(time.Second/5), 10)
	rl.limits[key] = limiter
	return limiter
}

// Allow checks if a request is allowed for the given key.
func (rl *rateLimiter) Allow(key string) bool {
	return rl.getLimiter(key).Allow()
}
