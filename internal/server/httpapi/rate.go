package httpapi

import (
	"net"
	"sync"
	"time"
)

type bucket struct {
	tokens int
	last   time.Time
}

// Limiter is a fixed-window request limiter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	rate    int
	window  time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

func NewLimiter(rate int, window time.Duration) *Limiter {
	return &Limiter{rate: rate, window: window, buckets: map[string]*bucket{}, now: time.Now}
}

// Allow consumes one request for ip and reports whether it is within the
// limit. A non-positive rate admits nothing. Stale buckets are dropped as
// they are encountered.
func (l *Limiter) Allow(ip string) bool {
	if l.rate <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[ip]
	if !ok || now.Sub(b.last) > l.window {
		if len(l.buckets) > 10_000 {
			l.sweep(now)
		}
		l.buckets[ip] = &bucket{tokens: l.rate - 1, last: now}
		return true
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

func (l *Limiter) sweep(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.last) > l.window {
			delete(l.buckets, ip)
		}
	}
}

func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
