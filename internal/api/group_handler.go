package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/services"
)

// GroupHandler handles private league endpoints
type GroupHandler struct {
	groups      services.GroupService
	leaderboard services.LeaderboardService
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(groups services.GroupService, leaderboard services.LeaderboardService) *GroupHandler {
	return &GroupHandler{groups: groups, leaderboard: leaderboard}
}

// Create makes a group with the current user as admin and first member
func (h *GroupHandler) Create(c *gin.Context) {
	var req models.CreateGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groups.Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// ListMine returns the groups the current user belongs to
func (h *GroupHandler) ListMine(c *gin.Context) {
	groups, err := h.groups.ListMine(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups, "count": len(groups)})
}

// Get returns a group to one of its members
func (h *GroupHandler) Get(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	group, err := h.groups.Get(c.Request.Context(), groupID, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// Join adds the current user to the group owning the invite code
func (h *GroupHandler) Join(c *gin.Context) {
	var req models.JoinGroupRequest
	if !bindJSON(c, &req) {
		return
	}

	group, err := h.groups.Join(c.Request.Context(), currentUser(c), req.InviteCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": group})
}

// Leave removes the current user from a group
func (h *GroupHandler) Leave(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.groups.Leave(c.Request.Context(), groupID, currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left group"})
}

// Kick removes a member (group admin only)
func (h *GroupHandler) Kick(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	memberID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	if err := h.groups.Kick(c.Request.Context(), groupID, currentUser(c).ID, memberID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// Delete removes a group (group admin only)
func (h *GroupHandler) Delete(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.groups.Delete(c.Request.Context(), groupID, currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Group deleted"})
}

// GameBets returns the members' bets on one game
func (h *GroupHandler) GameBets(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	gameID, ok := uuidParam(c, "gameId")
	if !ok {
		return
	}

	bets, err := h.groups.BetsForGame(c.Request.Context(), groupID, currentUser(c).ID, gameID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bets": bets, "count": len(bets)})
}

// Leaderboard ranks the group's members
func (h *GroupHandler) Leaderboard(c *gin.Context) {
	groupID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.leaderboard.ForGroup(c.Request.Context(), groupID, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
