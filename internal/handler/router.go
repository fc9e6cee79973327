package handler

import (
	"net/http"
	"time"

	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/middleware"
	"github.com/rotools/trader/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RouterDeps bundles everything the router needs
type RouterDeps struct {
	Config       *config.Config
	Sessions     *service.SessionManager
	Pricing      *service.PricingService
	Thumbs       *service.ThumbnailService
	Trades       *service.TradeService
	Redis        *redis.Client
	AuditEnabled bool
	Logger       *zap.Logger
}

// NewRouter assembles the gin engine with all middleware and routes
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(deps.Logger))
	router.Use(middleware.CORS())

	if deps.Config.RateLimit.Enabled {
		router.Use(middleware.RateLimit(
			deps.Config.RateLimit.RequestsPerMinute,
			deps.Config.RateLimit.BurstSize,
		))
	}

	if deps.Redis != nil {
		router.Use(middleware.RedisCache(deps.Redis, middleware.CacheConfig{
			Enabled:         true,
			DefaultDuration: deps.Config.Cache.ItemTTL,
			PrefixKey:       "trader",
			IncludedPaths:   []string{"/api/items"},
		}, deps.Logger))
	}

	authHandler := NewAuthHandler(deps.Sessions, deps.Logger)
	itemHandler := NewItemHandler(deps.Pricing, deps.Sessions, deps.Thumbs, deps.Logger)
	thumbHandler := NewThumbnailHandler(deps.Thumbs, deps.Logger)
	tradeHandler := NewTradeHandler(deps.Trades, deps.Sessions, deps.Logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
			"redis":  deps.Redis != nil,
			"audit":  deps.AuditEnabled,
		})
	})

	api := router.Group("/api")
	{
		api.GET("/items", itemHandler.Items)

		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)
		api.POST("/validate-token", authHandler.ValidateToken)

		// The refresh exchange authenticates with the cookie in the body,
		// so it must stay reachable without a header credential or session.
		api.POST("/roblox/refresh", authHandler.Refresh)

		authed := api.Group("")
		authed.Use(middleware.RequireCredential(deps.Sessions))
		{
			authed.GET("/inventory", itemHandler.Inventory)
			authed.GET("/profile", itemHandler.Profile)

			roblox := authed.Group("/roblox")
			{
				roblox.GET("/thumbnails", thumbHandler.AssetThumbnails)
				roblox.GET("/avatars", thumbHandler.AvatarHeadshots)

				trades := roblox.Group("/trades")
				{
					trades.GET("", tradeHandler.ListAllTrades)
					trades.GET("/unread/count", tradeHandler.UnreadCount)
					trades.GET("/detail/:id", tradeHandler.GetTradeDetail)
					trades.POST("/counter", tradeHandler.CounterTrade)
					trades.POST("/:id/accept", tradeHandler.AcceptTrade)
					trades.POST("/:id/decline", tradeHandler.DeclineTrade)
					trades.GET("/:kind", tradeHandler.ListTrades)
				}
			}
		}
	}

	return router
}
