package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cronosai/opsgate/types"
)

// rateLimiter is a per-client sliding-window counter. State is in-process;
// horizontal deployments shard limits per instance, which is acceptable for
// an abuse guard.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string]*windowState

	now func() time.Time
}

type windowState struct {
	count      int
	windowEnds time.Time
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string]*windowState),
		now:     time.Now,
	}
}

// allow counts one request for the client, returning whether it is within
// the limit, the remaining budget, and when the window resets.
func (r *rateLimiter) allow(client string) (ok bool, remaining int, reset time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	state, exists := r.clients[client]
	if !exists || now.After(state.windowEnds) {
		state = &windowState{windowEnds: now.Add(r.window)}
		r.clients[client] = state
		r.pruneLocked(now)
	}

	if state.count >= r.limit {
		return false, 0, state.windowEnds
	}
	state.count++
	return true, r.limit - state.count, state.windowEnds
}

// pruneLocked drops expired windows so the map does not grow unboundedly.
// Called with the mutex held, only on window rollover.
func (r *rateLimiter) pruneLocked(now time.Time) {
	for client, state := range r.clients {
		if now.After(state.windowEnds) {
			delete(r.clients, client)
		}
	}
}

func (r *rateLimiter) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, remaining, reset := r.allow(c.ClientIP())

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", r.limit))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success":     false,
				"error":       types.ErrRateLimited,
				"message":     "Too many requests. Slow down and retry after the window resets.",
				"recoverable": true,
			})
			return
		}
		c.Next()
	}
}
