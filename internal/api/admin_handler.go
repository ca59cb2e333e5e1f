package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/services"
)

// AdminHandler handles user administration
type AdminHandler struct {
	admin services.AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin services.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// ListUsers returns every account
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}

// MakeAdmin grants admin rights to a user
func (h *AdminHandler) MakeAdmin(c *gin.Context) {
	userID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.admin.MakeAdmin(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
