package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/services"
)

// PipelineHandler controls the sweep that scores finished but unscored games
type PipelineHandler struct {
	pipeline *services.ScoringPipeline
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(pipeline *services.ScoringPipeline) *PipelineHandler {
	return &PipelineHandler{pipeline: pipeline}
}

// pipelineRequest is the JSON form of PipelineConfig with the interval in minutes
type pipelineRequest struct {
	BatchSize       int `json:"batch_size"`
	IntervalMinutes int `json:"interval_minutes"`
	MaxConcurrent   int `json:"max_concurrent"`
}

// Status reports whether the sweep loop is running
func (h *PipelineHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"running":        h.pipeline.IsRunning(),
		"default_config": services.DefaultPipelineConfig(),
		"timestamp":      time.Now(),
	})
}

// Start begins the sweep loop. Missing fields fall back to the defaults.
func (h *PipelineHandler) Start(c *gin.Context) {
	config := services.DefaultPipelineConfig()

	var req pipelineRequest
	if c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}
	if req.BatchSize > 0 {
		config.BatchSize = req.BatchSize
	}
	if req.IntervalMinutes > 0 {
		config.Interval = time.Duration(req.IntervalMinutes) * time.Minute
	}
	if req.MaxConcurrent > 0 {
		config.MaxConcurrent = req.MaxConcurrent
	}

	if err := h.pipeline.Start(config); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to start pipeline: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Scoring pipeline started",
		"config":    config,
		"timestamp": time.Now(),
	})
}

// Stop ends the sweep loop after the current cycle
func (h *PipelineHandler) Stop(c *gin.Context) {
	if err := h.pipeline.Stop(); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Failed to stop pipeline: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Scoring pipeline stopped",
		"timestamp": time.Now(),
	})
}

// RunOnce runs a single sweep, tuned by ?batch_size= and ?max_concurrent=
func (h *PipelineHandler) RunOnce(c *gin.Context) {
	config := services.DefaultPipelineConfig()

	if v := c.Query("batch_size"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.BatchSize = parsed
		}
	}
	if v := c.Query("max_concurrent"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.MaxConcurrent = parsed
		}
	}

	stats, err := h.pipeline.RunOnce(c.Request.Context(), config)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Scoring cycle completed",
		"stats":     stats,
		"timestamp": time.Now(),
	})
}
