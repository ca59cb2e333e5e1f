package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/auth"
	"github.com/kickwager/kickwager-api/internal/errors"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/services"
)

const currentUserKey = "current_user"

// CurrentUserMiddleware loads the account behind the token. A token for a
// deleted account is rejected. Admin rights are read from the stored user,
// not from the token claims.
func CurrentUserMiddleware(authService services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := auth.UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			return
		}

		user, err := authService.Me(c.Request.Context(), userID)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account no longer exists"})
				return
			}
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// RequireAdmin rejects non-admin users with 403
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}
