package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheConfig holds configuration for the cache middleware
type CacheConfig struct {
	Enabled         bool
	DefaultDuration time.Duration
	PrefixKey       string
	IncludedPaths   []string
}

// RedisCache creates middleware for caching responses in Redis. Only
// explicitly listed GET paths are cached, and never requests that carry a
// credential: per-user data must not leak across sessions through a shared
// cache.
func RedisCache(redisClient *redis.Client, config CacheConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.Enabled || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		if c.GetHeader(CookieHeader) != "" {
			c.Next()
			return
		}

		included := false
		for _, path := range config.IncludedPaths {
			if c.Request.URL.Path == path {
				included = true
				break
			}
		}
		if !included {
			c.Next()
			return
		}

		cacheKey := generateCacheKey(c, config.PrefixKey)

		ctx := context.Background()
		cachedResponse, err := redisClient.Get(ctx, cacheKey).Bytes()
		if err == nil {
			logger.Debug("Cache hit",
				zap.String("path", c.Request.URL.Path),
				zap.String("cache_key", cacheKey))

			c.Writer.Header().Set("Content-Type", "application/json")
			c.Writer.Header().Set("X-Cache", "HIT")
			c.Writer.WriteHeader(http.StatusOK)
			c.Writer.Write(cachedResponse)
			c.Abort()
			return
		}

		// Capture the response for caching
		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		// Only cache successful responses
		if c.Writer.Status() == http.StatusOK {
			duration := config.DefaultDuration
			responseBody := writer.body.Bytes()

			err := redisClient.Set(ctx, cacheKey, responseBody, duration).Err()
			if err != nil {
				logger.Error("Failed to set cache",
					zap.Error(err),
					zap.String("cache_key", cacheKey))
			} else {
				logger.Debug("Cache set",
					zap.String("path", c.Request.URL.Path),
					zap.String("cache_key", cacheKey),
					zap.Duration("duration", duration))
			}
		}
	}
}

// responseWriter captures the response body for caching
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write captures the response for caching
func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// generateCacheKey creates a unique cache key for a request
func generateCacheKey(c *gin.Context, prefix string) string {
	path := c.Request.URL.Path
	query := c.Request.URL.RawQuery

	hash := sha256.New()
	if query != "" {
		io.WriteString(hash, fmt.Sprintf("%s?%s", path, query))
	} else {
		io.WriteString(hash, path)
	}
	return prefix + ":" + hex.EncodeToString(hash.Sum(nil))
}
