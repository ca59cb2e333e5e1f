package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/metrics"
	"github.com/kickwager/kickwager-api/pkg/config"
)

var devOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8080",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:8080",
}

var allowedContentTypes = []string{
	"application/json",
	"application/x-www-form-urlencoded",
}

var blockedAgents = []string{
	"sqlmap",
	"nikto",
	"nmap",
	"masscan",
	"<script",
	"javascript:",
}

// SecurityHeadersMiddleware sets response headers for a JSON-only API
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")

		// Bets and leaderboards change after every finalization
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Header("Server", "")

		c.Next()
	}
}

// CORSMiddleware allows the configured frontend origins, plus the usual
// dev server ports in development. Credentials are allowed for the
// auth cookie.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := make(map[string]bool)
	for _, o := range cfg.GetAllowedOrigins() {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}
	if cfg.IsDevelopment() {
		for _, o := range devOrigins {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-CSRF-Token")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// InputValidationMiddleware caps the body size, checks Content-Type on
// requests carrying a body and rejects well-known scanner user agents.
func InputValidationMiddleware(maxBodyBytes int64) gin.HandlerFunc {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}

	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)
		}

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength != 0 {
				contentType := c.GetHeader("Content-Type")
				if contentType == "" {
					c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
						"error": "Content-Type header is required",
					})
					return
				}
				if !hasAllowedType(contentType) {
					c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
						"error":         "Unsupported content type",
						"allowed_types": allowedContentTypes,
					})
					return
				}
			}
		}

		userAgent := c.GetHeader("User-Agent")
		if userAgent == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "User-Agent header is required",
			})
			return
		}

		ua := strings.ToLower(userAgent)
		for _, pattern := range blockedAgents {
			if strings.Contains(ua, pattern) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Request blocked for security reasons",
				})
				return
			}
		}

		c.Next()
	}
}

func hasAllowedType(contentType string) bool {
	for _, t := range allowedContentTypes {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}

// RateLimitingMiddleware allows limit requests per client IP per minute.
// State is per process.
func RateLimitingMiddleware(limit int) gin.HandlerFunc {
	if limit <= 0 {
		limit = 100
	}

	var mu sync.Mutex
	clients := make(map[string][]time.Time)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		recent := clients[ip][:0]
		for _, ts := range clients[ip] {
			if now.Sub(ts) <= time.Minute {
				recent = append(recent, ts)
			}
		}
		blocked := len(recent) >= limit
		if !blocked {
			recent = append(recent, now)
		}
		if len(recent) == 0 {
			delete(clients, ip)
		} else {
			clients[ip] = recent
		}
		mu.Unlock()

		if blocked {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "60",
			})
			return
		}

		c.Next()
	}
}

// LoggingMiddleware logs one line per request. 4xx responses are logged
// at warn, 5xx at error.
func LoggingMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"status", status,
			"method", c.Request.Method,
			"path", path,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		switch {
		case status >= 500:
			var err error
			if last := c.Errors.Last(); last != nil {
				err = last
			}
			log.Error("request failed", err, fields...)
		case status >= 400:
			log.Warn("request rejected", fields...)
		default:
			log.Info("request", fields...)
		}
	}
}

// MetricsMiddleware records request latency by route template
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.APIRequestDuration.
			WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
