package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/services"
)

// LeaderboardHandler serves the global ranking
type LeaderboardHandler struct {
	leaderboard services.LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboard services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboard: leaderboard}
}

// Global ranks every user who has placed a bet
func (h *LeaderboardHandler) Global(c *gin.Context) {
	entries, err := h.leaderboard.Global(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
