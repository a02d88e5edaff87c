package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"PortfolioCMS/internal/config"
	"PortfolioCMS/internal/domain"
	"PortfolioCMS/internal/metrics"
	"PortfolioCMS/internal/ports"
)

func recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Error("handler panicked", "path", c.Request.URL.Path, "panic", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()
		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(started),
			"ip", c.ClientIP(),
		)
	}
}

func instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ipLimiter hands out one token bucket per client IP. Buckets idle for
// longer than the window are swept on access.
type ipLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	every    rate.Limit
	burst    int
	window   time.Duration
	now      func() time.Time
	lastScan time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(cfg config.RateLimitConfig, now func() time.Time) *ipLimiter {
	return &ipLimiter{
		buckets: map[string]*bucket{},
		every:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Requests,
		window:  cfg.Window,
		now:     now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastScan) > l.window {
		for key, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.window {
				delete(l.buckets, key)
			}
		}
		l.lastScan = now
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.every, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b.limiter.AllowN(now, 1)
}

func rateLimit(cfg config.RateLimitConfig, now func() time.Time) gin.HandlerFunc {
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newIPLimiter(cfg, now)
	return func(c *gin.Context) {
		if !limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests from this IP, please try again later.",
			})
			return
		}
		c.Next()
	}
}

// trackPageViews records successful public GETs as analytics events.
func trackPageViews(store ports.AnalyticsStore, now func() time.Time, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Request.Method != http.MethodGet || c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		if strings.HasPrefix(c.FullPath(), "/api/admin") {
			return
		}
		ua := c.Request.UserAgent()
		record := domain.AnalyticsRecord{
			Path:      c.Request.URL.Path,
			UserAgent: ua,
			Referer:   c.Request.Referer(),
			IP:        c.ClientIP(),
			Country:   c.GetHeader("CF-IPCountry"),
			Device:    domain.DeviceFromUserAgent(ua),
			Timestamp: now(),
		}
		if _, err := store.CreateAnalytics(context.WithoutCancel(c.Request.Context()), record); err != nil {
			logger.Warn("analytics record failed", "path", record.Path, "error", err)
		}
	}
}
