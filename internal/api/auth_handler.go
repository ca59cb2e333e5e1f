package api

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kickwager/kickwager-api/internal/auth"
	"github.com/kickwager/kickwager-api/internal/models"
	"github.com/kickwager/kickwager-api/internal/services"
)

const csrfCookie = "csrf_token"

// AuthHandler handles account endpoints
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// loginResponse extends the token response with the CSRF token browser
// clients echo back in X-CSRF-Token
type loginResponse struct {
	*models.LoginResponse
	CSRFToken string `json:"csrf_token"`
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate CSRF token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func setCookie(c *gin.Context, name, value string, maxAge int) {
	secure := c.GetHeader("X-Forwarded-Proto") == "https" || c.Request.TLS != nil
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", secure, true)
}

func clearAuthCookies(c *gin.Context) {
	setCookie(c, auth.AuthCookie, "", -1)
	setCookie(c, csrfCookie, "", -1)
}

// Register creates an account
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    user,
	})
}

// Login returns a bearer token and also sets it as an HTTP-only cookie
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	csrfToken, err := generateCSRFToken()
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := int(time.Until(resp.ExpiresAt).Seconds())
	setCookie(c, auth.AuthCookie, resp.Token, maxAge)
	setCookie(c, csrfCookie, csrfToken, maxAge)

	c.JSON(http.StatusOK, loginResponse{LoginResponse: resp, CSRFToken: csrfToken})
}

// Logout clears the auth cookies
func (h *AuthHandler) Logout(c *gin.Context) {
	clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns the current user
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": currentUser(c)})
}

// DeleteAccount removes the current user and everything they own
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	user := currentUser(c)
	if err := h.authService.DeleteAccount(c.Request.Context(), user.ID); err != nil {
		respondError(c, err)
		return
	}

	clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
