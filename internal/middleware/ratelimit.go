package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// loginLimiter tracks a per-client token bucket with a last-seen time for
// eviction.
type loginLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginRateLimiter throttles credential endpoints per client IP. Buckets idle
// longer than the eviction window are dropped to bound memory.
type LoginRateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*loginLimiter
	limit    rate.Limit
	burst    int
	eviction time.Duration
}

// NewLoginRateLimiter creates a limiter allowing attemptsPerMinute sustained
// with a small burst.
func NewLoginRateLimiter(attemptsPerMinute int, burst int) *LoginRateLimiter {
	return &LoginRateLimiter{
		clients:  make(map[string]*loginLimiter),
		limit:    rate.Every(time.Minute / time.Duration(attemptsPerMinute)),
		burst:    burst,
		eviction: 10 * time.Minute,
	}
}

func (l *LoginRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, client := range l.clients {
		if now.Sub(client.lastSeen) > l.eviction {
			delete(l.clients, key)
		}
	}

	client, ok := l.clients[ip]
	if !ok {
		client = &loginLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = client
	}
	client.lastSeen = now
	return client.limiter.Allow()
}

// Middleware rejects over-limit requests with 429.
func (l *LoginRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !l.allow(ip) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Too many attempts. Try again later."})
			return
		}
		next.ServeHTTP(w, r)
	})
}
