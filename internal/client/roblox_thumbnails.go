package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotools/trader/internal/model"

	"go.uber.org/zap"
)

func joinIDs(ids []int64) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strconv.FormatInt(id, 10))
	}
	return strings.Join(parts, ",")
}

// AssetThumbnails resolves thumbnail URLs for a batch of asset ids in one
// upstream call. Entries still pending upstream are omitted from the result
// so callers never cache an unfinished render.
func (c *RobloxClient) AssetThumbnails(ctx context.Context, assetIDs []int64, size, format string) (map[int64]string, error) {
	if len(assetIDs) == 0 {
		return map[int64]string{}, nil
	}

	params := url.Values{}
	params.Add("assetIds", joinIDs(assetIDs))
	params.Add("size", size)
	params.Add("format", format)

	reqURL := fmt.Sprintf("%s/v1/assets?%s", c.thumbnailsURL, params.Encode())

	var batch model.ThumbnailBatch
	if err := c.getJSON(ctx, reqURL, "", &batch); err != nil {
		return nil, err
	}
	return c.collectCompleted(batch), nil
}

// AvatarHeadshots resolves avatar headshot URLs for a batch of user ids.
func (c *RobloxClient) AvatarHeadshots(ctx context.Context, userIDs []int64, size, format string, circular bool) (map[int64]string, error) {
	if len(userIDs) == 0 {
		return map[int64]string{}, nil
	}

	params := url.Values{}
	params.Add("userIds", joinIDs(userIDs))
	params.Add("size", size)
	params.Add("format", format)
	params.Add("isCircular", strconv.FormatBool(circular))

	reqURL := fmt.Sprintf("%s/v1/users/avatar-headshot?%s", c.thumbnailsURL, params.Encode())

	var batch model.ThumbnailBatch
	if err := c.getJSON(ctx, reqURL, "", &batch); err != nil {
		return nil, err
	}
	return c.collectCompleted(batch), nil
}

func (c *RobloxClient) collectCompleted(batch model.ThumbnailBatch) map[int64]string {
	result := make(map[int64]string, len(batch.Data))
	for _, entry := range batch.Data {
		if entry.State != "Completed" || entry.ImageURL == "" {
			c.logger.Debug("Skipping unresolved thumbnail",
				zap.Int64("targetId", entry.TargetID),
				zap.String("state", entry.State))
			continue
		}
		result[entry.TargetID] = entry.ImageURL
	}
	return result
}
