package handler

import (
	"net/http"
	"strconv"

	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/middleware"
	"github.com/rotools/trader/internal/model"
	"github.com/rotools/trader/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TradeHandler handles trade listing, detail and mutation requests
type TradeHandler struct {
	trades   *service.TradeService
	sessions *service.SessionManager
	logger   *zap.Logger
}

// NewTradeHandler creates a new trade handler
func NewTradeHandler(trades *service.TradeService, sessions *service.SessionManager, logger *zap.Logger) *TradeHandler {
	return &TradeHandler{
		trades:   trades,
		sessions: sessions,
		logger:   logger,
	}
}

// ListTrades serves one page of trades of a kind
// GET /api/roblox/trades/:kind
func (h *TradeHandler) ListTrades(c *gin.Context) {
	kind := model.TradeKind(c.Param("kind"))
	if !model.ValidTradeKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trade kind must be inbound, outbound or completed"})
		return
	}

	limit := client.DefaultTradePageSize
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	cookie := middleware.Credential(c)
	page, err := h.trades.ListTrades(c.Request.Context(), cookie, kind, limit, c.Query("cursor"), c.DefaultQuery("sortOrder", "Desc"))
	if err != nil {
		h.logger.Error("failed to list trades",
			zap.String("kind", string(kind)),
			zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// ListAllTrades serves the three listings in one response
// GET /api/roblox/trades
func (h *TradeHandler) ListAllTrades(c *gin.Context) {
	cookie := middleware.Credential(c)
	c.JSON(http.StatusOK, h.trades.ListAllTrades(c.Request.Context(), cookie))
}

// GetTradeDetail serves the normalized detail of one trade
// GET /api/roblox/trades/detail/:id
func (h *TradeHandler) GetTradeDetail(c *gin.Context) {
	tradeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trade id must be numeric"})
		return
	}

	cookie := middleware.Credential(c)
	user, err := h.sessions.ResolveUser(c.Request.Context(), cookie)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	trade, err := h.trades.GetTradeDetail(c.Request.Context(), cookie, user.ID, tradeID)
	if err != nil {
		h.logger.Error("failed to fetch trade detail",
			zap.Int64("tradeId", tradeID),
			zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, trade)
}

// AcceptTrade accepts an inbound trade
// POST /api/roblox/trades/:id/accept
func (h *TradeHandler) AcceptTrade(c *gin.Context) {
	h.mutate(c, "accept", "Trade accepted", func(ctx *gin.Context, cookie string, userID, tradeID int64) error {
		return h.trades.AcceptTrade(ctx.Request.Context(), cookie, userID, tradeID)
	})
}

// DeclineTrade declines a trade
// POST /api/roblox/trades/:id/decline
func (h *TradeHandler) DeclineTrade(c *gin.Context) {
	h.mutate(c, "decline", "Trade declined", func(ctx *gin.Context, cookie string, userID, tradeID int64) error {
		return h.trades.DeclineTrade(ctx.Request.Context(), cookie, userID, tradeID)
	})
}

func (h *TradeHandler) mutate(c *gin.Context, action, message string, fn func(*gin.Context, string, int64, int64) error) {
	tradeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Trade id must be numeric"})
		return
	}

	cookie := middleware.Credential(c)
	user, err := h.sessions.ResolveUser(c.Request.Context(), cookie)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	if err := fn(c, cookie, user.ID, tradeID); err != nil {
		h.logger.Error("trade mutation failed",
			zap.String("action", action),
			zap.Int64("tradeId", tradeID),
			zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"tradeId": tradeID,
	})
}

// CounterTrade sends a counter proposal for an inbound trade
// POST /api/roblox/trades/counter
func (h *TradeHandler) CounterTrade(c *gin.Context) {
	var request model.CounterTradeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tradeId, offerItems and requestItems are required"})
		return
	}

	cookie := middleware.Credential(c)
	user, err := h.sessions.ResolveUser(c.Request.Context(), cookie)
	if err != nil {
		respondUpstreamError(c, err)
		return
	}

	counterID, err := h.trades.CounterTrade(c.Request.Context(), cookie, user.ID, request)
	if err != nil {
		h.logger.Error("failed to counter trade",
			zap.Int64("tradeId", request.TradeID),
			zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Counter trade sent",
		"counterTradeId": counterID,
	})
}

// UnreadCount serves the inbound unread trade count
// GET /api/roblox/trades/unread/count
func (h *TradeHandler) UnreadCount(c *gin.Context) {
	cookie := middleware.Credential(c)
	count, err := h.trades.UnreadCount(c.Request.Context(), cookie)
	if err != nil {
		h.logger.Error("failed to fetch unread trade count", zap.Error(err))
		respondUpstreamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
