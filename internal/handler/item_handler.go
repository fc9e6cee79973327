package handler

import (
	"net/http"

	"github.com/rotools/trader/internal/middleware"
	"github.com/rotools/trader/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ItemHandler serves pricing data, the enriched inventory and the profile
type ItemHandler struct {
	pricing  *service.PricingService
	sessions *service.SessionManager
	thumbs   *service.ThumbnailService
	logger   *zap.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(pricing *service.PricingService, sessions *service.SessionManager, thumbs *service.ThumbnailService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{
		pricing:  pricing,
		sessions: sessions,
		thumbs:   thumbs,
		logger:   logger,
	}
}

// Items serves the cached pricing dataset
// GET /api/items
func (h *ItemHandler) Items(c *gin.Context) {
	details, err := h.pricing.ItemDetails(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to fetch item details", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Pricing data unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": details, "count": len(details)})
}

// Inventory serves the authenticated user's enriched inventory
// GET /api/inventory
func (h *ItemHandler) Inventory(c *gin.Context) {
	cookie := middleware.Credential(c)

	user, err := h.sessions.ResolveUser(c.Request.Context(), cookie)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	inventory, err := h.pricing.PlayerInventory(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to build inventory",
			zap.Int64("userId", user.ID),
			zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": inventory, "count": len(inventory)})
}

// Profile serves the authenticated user's profile with avatar
// GET /api/profile
func (h *ItemHandler) Profile(c *gin.Context) {
	cookie := middleware.Credential(c)

	user, err := h.sessions.ResolveUser(c.Request.Context(), cookie)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	avatars, err := h.thumbs.AvatarHeadshots(c.Request.Context(), []int64{user.ID},
		service.DefaultThumbnailSize, service.DefaultThumbnailFormat, true)
	if err != nil {
		h.logger.Warn("failed to fetch profile avatar",
			zap.Int64("userId", user.ID),
			zap.Error(err))
	} else if url, ok := avatars[user.ID]; ok {
		user.Avatar = url
	}

	c.JSON(http.StatusOK, user)
}
