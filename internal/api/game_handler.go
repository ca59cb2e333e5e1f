package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/services"
)

// GameHandler handles schedule endpoints
type GameHandler struct {
	games   services.GameService
	bets    services.BetService
	scoring services.ScoringService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games services.GameService, bets services.BetService, scoring services.ScoringService) *GameHandler {
	return &GameHandler{games: games, bets: bets, scoring: scoring}
}

// List returns games, optionally filtered by ?week= and ?season=
func (h *GameHandler) List(c *gin.Context) {
	filters := models.GameFilters{Season: c.Query("season")}
	if week := c.Query("week"); week != "" {
		w, err := strconv.Atoi(week)
		if err != nil || w < 1 {
			respondError(c, errors.ValidationError("week must be a positive integer", err))
			return
		}
		filters.Week = w
	}

	games, err := h.games.List(c.Request.Context(), filters)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"games": games, "count": len(games)})
}

// Get returns one game
func (h *GameHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	game, err := h.games.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game})
}

// Bets returns every bet placed on a game
func (h *GameHandler) Bets(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	bets, err := h.bets.ListByGame(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": bets, "count": len(bets)})
}

// Create adds a game to the schedule (admin)
func (h *GameHandler) Create(c *gin.Context) {
	var req models.CreateGameRequest
	if !bindJSON(c, &req) {
		return
	}

	game, err := h.games.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"game": game})
}

// Update changes a game's status or scores (admin). Marking a game finished
// with both scores scores its bets.
func (h *GameHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.UpdateGameRequest
	if !bindJSON(c, &req) {
		return
	}

	game, err := h.games.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": game})
}

// Rescore re-applies scoring with corrected final scores (admin)
func (h *GameHandler) Rescore(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var req models.FinalScoreRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.scoring.RescoreGame(c.Request.Context(), id, *req.HomeScore, *req.AwayScore)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// Delete removes a game and its bets (admin)
func (h *GameHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.games.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Game deleted"})
}
