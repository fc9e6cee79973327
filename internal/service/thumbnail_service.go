package service

import (
	"context"

	"github.com/rotools/trader/internal/cache"
	"github.com/rotools/trader/internal/client"

	"go.uber.org/zap"
)

// DefaultThumbnailSize and DefaultThumbnailFormat are the render parameters
// used when a caller does not specify any.
const (
	DefaultThumbnailSize   = "150x150"
	DefaultThumbnailFormat = "Png"
)

// ThumbnailService resolves asset thumbnails and avatar headshots through
// session-lifetime caches. Batch requests are split into cached and
// uncached ids so each upstream call covers only what is actually missing.
type ThumbnailService struct {
	roblox  *client.RobloxClient
	assets  *cache.URLCache
	avatars *cache.URLCache
	logger  *zap.Logger
}

// NewThumbnailService creates a thumbnail service with caches bounded to
// size entries each.
func NewThumbnailService(roblox *client.RobloxClient, size int, logger *zap.Logger) *ThumbnailService {
	return &ThumbnailService{
		roblox:  roblox,
		assets:  cache.NewURLCache(size),
		avatars: cache.NewURLCache(size),
		logger:  logger,
	}
}

// AssetThumbnails resolves thumbnail URLs for the given asset ids, serving
// cached entries and batch-fetching the rest in one upstream call. On
// upstream failure nothing new is cached and the error is returned.
func (s *ThumbnailService) AssetThumbnails(ctx context.Context, assetIDs []int64, size, format string) (map[int64]string, error) {
	if size == "" {
		size = DefaultThumbnailSize
	}
	if format == "" {
		format = DefaultThumbnailFormat
	}

	result, missing := s.splitCached(s.assets, assetIDs, size, format)
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := s.roblox.AssetThumbnails(ctx, missing, size, format)
	if err != nil {
		return nil, err
	}
	s.backfill(s.assets, fetched, size, format, result)
	return result, nil
}

// AvatarHeadshots resolves avatar headshot URLs for the given user ids with
// the same split/fetch/backfill behavior as AssetThumbnails.
func (s *ThumbnailService) AvatarHeadshots(ctx context.Context, userIDs []int64, size, format string, circular bool) (map[int64]string, error) {
	if size == "" {
		size = DefaultThumbnailSize
	}
	if format == "" {
		format = DefaultThumbnailFormat
	}
	formatKey := format
	if circular {
		formatKey += ":circular"
	}

	result, missing := s.splitCached(s.avatars, userIDs, size, formatKey)
	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := s.roblox.AvatarHeadshots(ctx, missing, size, format, circular)
	if err != nil {
		return nil, err
	}
	s.backfill(s.avatars, fetched, size, formatKey, result)
	return result, nil
}

// splitCached partitions ids into already-resolved URLs and ids that still
// need an upstream call. Duplicate ids are collapsed.
func (s *ThumbnailService) splitCached(c *cache.URLCache, ids []int64, size, format string) (map[int64]string, []int64) {
	result := make(map[int64]string, len(ids))
	missing := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if url, ok := c.Get(id, size, format); ok {
			result[id] = url
			continue
		}
		missing = append(missing, id)
	}
	return result, missing
}

func (s *ThumbnailService) backfill(c *cache.URLCache, fetched map[int64]string, size, format string, result map[int64]string) {
	for id, url := range fetched {
		c.Add(id, size, format, url)
		result[id] = url
	}
	s.logger.Debug("Backfilled thumbnail cache", zap.Int("count", len(fetched)))
}
