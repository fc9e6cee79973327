package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/rotools/trader/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ThumbnailHandler handles thumbnail resolution requests
type ThumbnailHandler struct {
	thumbs *service.ThumbnailService
	logger *zap.Logger
}

// NewThumbnailHandler creates a new thumbnail handler
func NewThumbnailHandler(thumbs *service.ThumbnailService, logger *zap.Logger) *ThumbnailHandler {
	return &ThumbnailHandler{
		thumbs: thumbs,
		logger: logger,
	}
}

// AssetThumbnails resolves thumbnail URLs for a batch of assets
// GET /api/roblox/thumbnails?assetIds=1,2,3&size=150x150&format=Png
func (h *ThumbnailHandler) AssetThumbnails(c *gin.Context) {
	ids, err := parseIDList(c.Query("assetIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "assetIds must be a comma-separated list of ids"})
		return
	}

	urls, err := h.thumbs.AssetThumbnails(c.Request.Context(), ids, c.Query("size"), c.Query("format"))
	if err != nil {
		h.logger.Error("failed to resolve asset thumbnails", zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"thumbnails": urls})
}

// AvatarHeadshots resolves headshot URLs for a batch of users
// GET /api/roblox/avatars?userIds=1,2,3
func (h *ThumbnailHandler) AvatarHeadshots(c *gin.Context) {
	ids, err := parseIDList(c.Query("userIds"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userIds must be a comma-separated list of ids"})
		return
	}

	circular := c.DefaultQuery("isCircular", "true") == "true"

	urls, err := h.thumbs.AvatarHeadshots(c.Request.Context(), ids, c.Query("size"), c.Query("format"), circular)
	if err != nil {
		h.logger.Error("failed to resolve avatar headshots", zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatars": urls})
}

func parseIDList(raw string) ([]int64, error) {
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, strconv.ErrSyntax
	}
	return ids, nil
}
