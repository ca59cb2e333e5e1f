package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker is implemented by the database handle
type HealthChecker interface {
	HealthCheck() error
}

// HealthHandler reports liveness and database reachability
type HealthHandler struct {
	db      HealthChecker
	started time.Time
}

// NewHealthHandler creates a health handler. db may be nil.
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, started: time.Now()}
}

// Health returns 200 when the database answers, 503 otherwise
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	database := "ok"
	if h.db != nil {
		if err := h.db.HealthCheck(); err != nil {
			status = http.StatusServiceUnavailable
			database = err.Error()
		}
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":    state,
		"database":  database,
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"timestamp": time.Now(),
	})
}
