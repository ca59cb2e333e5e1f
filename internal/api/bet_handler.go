package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/services"
)

// BetHandler handles bet endpoints
type BetHandler struct {
	bets services.BetService
}

// NewBetHandler creates a new bet handler
func NewBetHandler(bets services.BetService) *BetHandler {
	return &BetHandler{bets: bets}
}

// Place records the current user's prediction for a scheduled game
func (h *BetHandler) Place(c *gin.Context) {
	var req models.PlaceBetRequest
	if !bindJSON(c, &req) {
		return
	}

	bet, err := h.bets.Place(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bet": bet})
}

// Mine lists the current user's bets, newest first
func (h *BetHandler) Mine(c *gin.Context) {
	bets, err := h.bets.ListByUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": bets, "count": len(bets)})
}

// ByUser lists another user's bets, newest first
func (h *BetHandler) ByUser(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	bets, err := h.bets.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": bets, "count": len(bets)})
}
