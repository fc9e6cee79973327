package handler

import (
	"errors"
	"net/http"

	"github.com/rotools/trader/internal/client"

	"github.com/gin-gonic/gin"
)

// respondUpstreamError maps a failed upstream call onto a response. Known
// upstream statuses pass through with a structured body; anything else is a
// 502 so the frontend can offer a retry.
func respondUpstreamError(c *gin.Context, err error) {
	var upstream *client.UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.StatusCode {
		case http.StatusUnauthorized:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired session cookie"})
		case http.StatusForbidden:
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied by Roblox"})
		case http.StatusTooManyRequests:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Upstream rate limit reached. Try again later."})
		default:
			c.JSON(upstream.StatusCode, gin.H{"error": "Upstream request failed"})
		}
		return
	}

	c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream service unavailable"})
}
