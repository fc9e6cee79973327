package handler

import (
	"net/http"

	"github.com/rotools/trader/internal/model"
	"github.com/rotools/trader/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler handles session authentication requests
type AuthHandler struct {
	sessions *service.SessionManager
	logger   *zap.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(sessions *service.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Login validates a Roblox cookie and opens a session
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var request model.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cookie is required"})
		return
	}

	response, err := h.sessions.Login(c.Request.Context(), request.Cookie)
	if err != nil {
		h.logger.Debug("login failed", zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Logout closes the active session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Logout()
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// Refresh performs the cookie refresh exchange
// POST /api/roblox/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var request model.RefreshRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cookie is required"})
		return
	}

	result, err := h.sessions.Refresh(c.Request.Context(), request.Cookie)
	if err != nil {
		h.logger.Debug("cookie refresh failed", zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ValidateToken checks a session-indicator token
// POST /api/validate-token
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	var request model.ValidateTokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	user, err := h.sessions.ValidateToken(request.Token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, model.ValidateTokenResponse{IsValid: false})
		return
	}

	c.JSON(http.StatusOK, model.ValidateTokenResponse{IsValid: true, User: user})
}
