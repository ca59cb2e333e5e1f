package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/logger"
	"github.com/kickwager/kickwager-api/internal/metrics"
	"github.com/kickwager/kickwager-api/pkg/config"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.Any("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "test"})
	})
	return r
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := okRouter(SecurityHeadersMiddleware())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "default-src 'none'")
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		allowed     string
		origin      string
		shouldAllow bool
	}{
		{
			name:        "development allows vite dev server",
			environment: "development",
			origin:      "http://localhost:5173",
			shouldAllow: true,
		},
		{
			name:        "development blocks unknown origin",
			environment: "development",
			origin:      "https://evil.example",
		},
		{
			name:        "production allows configured origin",
			environment: "production",
			allowed:     "https://kickwager.com, https://www.kickwager.com",
			origin:      "https://www.kickwager.com",
			shouldAllow: true,
		},
		{
			name:        "production ignores dev origins",
			environment: "production",
			allowed:     "https://kickwager.com",
			origin:      "http://localhost:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.environment, AllowedOrigins: tt.allowed}
			router := okRouter(CORSMiddleware(cfg))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if tt.shouldAllow {
				assert.Equal(t, tt.origin, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
			assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "X-CSRF-Token")
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	router := okRouter(CORSMiddleware(&config.Config{Environment: "development"}))

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestInputValidationMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		contentType    string
		userAgent      string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "json post",
			method:         http.MethodPost,
			body:           `{"a":1}`,
			contentType:    "application/json",
			userAgent:      "Mozilla/5.0",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "empty post needs no content type",
			method:         http.MethodPost,
			userAgent:      "Mozilla/5.0",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "post body without content type",
			method:         http.MethodPost,
			body:           `{"a":1}`,
			userAgent:      "Mozilla/5.0",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "Content-Type header is required",
		},
		{
			name:           "html body",
			method:         http.MethodPut,
			body:           "<p>hi</p>",
			contentType:    "text/html",
			userAgent:      "Mozilla/5.0",
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedError:  "Unsupported content type",
		},
		{
			name:           "missing user agent",
			method:         http.MethodGet,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "User-Agent header is required",
		},
		{
			name:           "sqlmap",
			method:         http.MethodGet,
			userAgent:      "sqlmap/1.4.9",
			expectedStatus: http.StatusForbidden,
			expectedError:  "Request blocked for security reasons",
		},
		{
			name:           "script tag",
			method:         http.MethodGet,
			userAgent:      "Mozilla <script>alert('xss')</script>",
			expectedStatus: http.StatusForbidden,
			expectedError:  "Request blocked for security reasons",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := okRouter(InputValidationMiddleware(1024))

			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, "/test", strings.NewReader(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, "/test", nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			req.Header.Del("User-Agent")
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
		})
	}
}

func TestInputValidationMiddleware_BodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(InputValidationMiddleware(16))
	router.POST("/test", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "too large"})
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "test")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRateLimitingMiddleware(t *testing.T) {
	router := okRouter(RateLimitingMiddleware(3))

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		if w.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", w.Header().Get("Retry-After"))
		}
	}

	assert.Equal(t, []int{200, 200, 200, 429, 429}, codes)

	// Other clients have their own window
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:4000"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: "info", Format: "json", Output: &buf})

	router := okRouter(LoggingMiddleware(log))

	req := httptest.NewRequest(http.MethodGet, "/test?week=3", nil)
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := buf.String()
	assert.Contains(t, out, `"path":"/test?week=3"`)
	assert.Contains(t, out, `"user_agent":"test-agent"`)
	assert.Contains(t, out, `"status":200`)
}

func TestMetricsMiddleware(t *testing.T) {
	router := okRouter(MetricsMiddleware())

	for _, path := range []string{"/test", "/missing"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}

	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.APIRequestDuration), 2)
}
