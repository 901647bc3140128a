package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiterSet keeps one token bucket per key (client IP or account email)
// and forgets buckets that have been idle longer than ttl.
type limiterSet struct {
	mu    sync.Mutex
	limit rate.Limit
	burst int
	ttl   time.Duration
	seen  map[string]*seenLimiter
}

type seenLimiter struct {
	lim  *rate.Limiter
	last time.Time
}

func newLimiterSet(limit rate.Limit, burst int, ttl time.Duration) *limiterSet {
	return &limiterSet{
		limit: limit,
		burst: burst,
		ttl:   ttl,
		seen:  make(map[string]*seenLimiter),
	}
}

func (ls *limiterSet) allow(key string) bool {
	now := time.Now()
	ls.mu.Lock()
	defer ls.mu.Unlock()

	s, ok := ls.seen[key]
	if !ok {
		ls.prune(now)
		s = &seenLimiter{lim: rate.NewLimiter(ls.limit, ls.burst)}
		ls.seen[key] = s
	}
	s.last = now
	return s.lim.Allow()
}

// prune runs under the lock, only when a new key arrives.
func (ls *limiterSet) prune(now time.Time) {
	for k, s := range ls.seen {
		if now.Sub(s.last) > ls.ttl {
			delete(ls.seen, k)
		}
	}
}

// getClientIP prefers the first X-Forwarded-For hop so the limiter keys on
// the real client when a proxy sits in front.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
