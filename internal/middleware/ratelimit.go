package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusdesk/campusdesk/internal/pkg/errcode"
	"github.com/campusdesk/campusdesk/internal/pkg/response"
)

const defaultSweepInterval = time.Minute

type rateLimiter struct {
	mu            sync.Mutex
	window        time.Duration
	last          map[string]time.Time
	sweepInterval time.Duration
	lastSweep     time.Time
	now           func() time.Time
}

// RateLimit enforces one request per window per caller and path. The
// caller key prefers the session header so shared NATs don't starve
// each other.
func RateLimit(window time.Duration) gin.HandlerFunc {
	limiter := &rateLimiter{
		window:        window,
		last:          make(map[string]time.Time),
		sweepInterval: defaultSweepInterval,
		now:           time.Now,
	}
	return limiter.handle
}

func (l *rateLimiter) handle(c *gin.Context) {
	if l.window <= 0 {
		c.Next()
		return
	}
	caller := c.GetHeader("X-Session-Id")
	if caller == "" {
		caller = c.ClientIP()
	}
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	key := strings.Join([]string{caller, path}, "|")

	now := l.now()
	l.mu.Lock()
	l.cleanupExpiredLocked(now)
	last, exists := l.last[key]
	if exists && now.Sub(last) < l.window {
		l.mu.Unlock()
		logutil.GetLogger(c.Request.Context()).Warn("rate limit hit",
			zap.String("caller", caller),
			zap.String("path", path),
		)
		response.Error(c, errcode.ErrTooMany, http.StatusText(http.StatusTooManyRequests))
		c.Abort()
		return
	}
	l.last[key] = now
	l.mu.Unlock()
	c.Next()
}

// cleanupExpiredLocked drops entries outside the window at most once
// per sweep interval, keeping the map bounded by active callers.
func (l *rateLimiter) cleanupExpiredLocked(now time.Time) {
	if !l.lastSweep.IsZero() && now.Sub(l.lastSweep) < l.sweepInterval {
		return
	}
	for key, last := range l.last {
		if now.Sub(last) >= l.window {
			delete(l.last, key)
		}
	}
	l.lastSweep = now
}
