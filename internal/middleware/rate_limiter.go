package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"ewarranty/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// rateEntry tracks request counts per IP within a fixed window.
type rateEntry struct {
	count     int
	windowEnd time.Time
}

// RateLimiter counts requests per client IP. One limiter backs one
// middleware; the login route gets its own, stricter instance.
type RateLimiter struct {
	name    string
	limit   int
	window  time.Duration
	message string
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*rateEntry
}

func NewRateLimiter(name string, limit int, window time.Duration, message string) *RateLimiter {
	return &RateLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		message: message,
		now:     time.Now,
		entries: make(map[string]*rateEntry),
	}
}

// NewLoginRateLimiter allows 20 login attempts per minute per IP.
func NewLoginRateLimiter() *RateLimiter {
	return NewRateLimiter("login", 20, time.Minute, "too many login attempts, try again in a minute")
}

// allow records one hit and returns the end of the current window when the
// limit is exceeded.
func (l *RateLimiter) allow(ip string) (time.Time, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[ip]
	if !ok || now.After(entry.windowEnd) {
		entry = &rateEntry{windowEnd: now.Add(l.window)}
		l.entries[ip] = entry
	}
	entry.count++
	return entry.windowEnd, entry.count <= l.limit
}

func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		windowEnd, ok := l.allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// purge drops entries whose window has ended and returns how many it removed.
func (l *RateLimiter) purge() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	purged := 0
	for ip, entry := range l.entries {
		if now.After(entry.windowEnd) {
			delete(l.entries, ip)
			purged++
		}
	}
	return purged
}

// RunPurge periodically removes expired entries until ctx is cancelled, so
// that IPs which never return do not accumulate.
func (l *RateLimiter) RunPurge(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := l.purge(); n > 0 {
				log.Debug().Str("limiter", l.name).Int("entries_purged", n).Msg("rate limiter purged")
			}
		}
	}
}
