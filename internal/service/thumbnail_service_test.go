package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type thumbnailUpstream struct {
	calls      int
	requested  [][]string
	failNext   bool
	pendingIDs map[string]bool
}

func (u *thumbnailUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u.calls++
		if u.failNext {
			u.failNext = false
			w.WriteHeader(http.StatusForbidden)
			return
		}

		raw := r.URL.Query().Get("assetIds")
		if raw == "" {
			raw = r.URL.Query().Get("userIds")
		}
		ids := strings.Split(raw, ",")
		u.requested = append(u.requested, ids)

		batch := model.ThumbnailBatch{}
		for _, id := range ids {
			entry := model.ThumbnailResult{State: "Completed", ImageURL: "https://cdn.example/" + id}
			fmt.Sscan(id, &entry.TargetID)
			if u.pendingIDs[id] {
				entry.State = "Pending"
				entry.ImageURL = ""
			}
			batch.Data = append(batch.Data, entry)
		}
		json.NewEncoder(w).Encode(batch)
	}
}

func newThumbnailFixture(t *testing.T) (*ThumbnailService, *thumbnailUpstream) {
	t.Helper()

	upstream := &thumbnailUpstream{}
	server := httptest.NewServer(upstream.handler())
	t.Cleanup(server.Close)

	roblox := client.NewRobloxClient(config.RobloxConfig{
		AuthURL:       server.URL,
		TradesURL:     server.URL,
		ThumbnailsURL: server.URL,
		UsersURL:      server.URL,
	}, zap.NewNop())

	return NewThumbnailService(roblox, 128, zap.NewNop()), upstream
}

func TestAssetThumbnailsFetchesOnlyUncachedIDs(t *testing.T) {
	thumbs, upstream := newThumbnailFixture(t)
	ctx := context.Background()

	// Warm the cache with one id
	warm, err := thumbs.AssetThumbnails(ctx, []int64{1}, "", "")
	require.NoError(t, err)
	require.Len(t, warm, 1)
	require.Equal(t, 1, upstream.calls)

	// One cached id plus two new ones: a single upstream call covering
	// exactly the two misses
	result, err := thumbs.AssetThumbnails(ctx, []int64{1, 2, 3}, "", "")
	require.NoError(t, err)

	assert.Len(t, result, 3)
	assert.Equal(t, "https://cdn.example/1", result[1])
	assert.Equal(t, "https://cdn.example/2", result[2])
	assert.Equal(t, "https://cdn.example/3", result[3])

	require.Equal(t, 2, upstream.calls)
	assert.ElementsMatch(t, []string{"2", "3"}, upstream.requested[1])
}

func TestAssetThumbnailsCollapsesDuplicates(t *testing.T) {
	thumbs, upstream := newThumbnailFixture(t)

	result, err := thumbs.AssetThumbnails(context.Background(), []int64{7, 7, 7}, "", "")
	require.NoError(t, err)

	assert.Len(t, result, 1)
	require.Equal(t, 1, upstream.calls)
	assert.Equal(t, []string{"7"}, upstream.requested[0])
}

func TestAssetThumbnailsFullyCachedSkipsUpstream(t *testing.T) {
	thumbs, upstream := newThumbnailFixture(t)
	ctx := context.Background()

	_, err := thumbs.AssetThumbnails(ctx, []int64{4, 5}, "", "")
	require.NoError(t, err)

	_, err = thumbs.AssetThumbnails(ctx, []int64{4, 5}, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.calls)
}

func TestAssetThumbnailsFailureCachesNothing(t *testing.T) {
	thumbs, upstream := newThumbnailFixture(t)
	ctx := context.Background()

	upstream.failNext = true
	_, err := thumbs.AssetThumbnails(ctx, []int64{8, 9}, "", "")
	require.Error(t, err)

	// Both ids are still misses on the next attempt
	result, err := thumbs.AssetThumbnails(ctx, []int64{8, 9}, "", "")
	require.NoError(t, err)
	assert.Len(t, result, 2)
	assert.ElementsMatch(t, []string{"8", "9"}, upstream.requested[len(upstream.requested)-1])
}

func TestAssetThumbnailsSkipsPendingRenders(t *testing.T) {
	thumbs, upstream := newThumbnailFixture(t)
	upstream.pendingIDs = map[string]bool{"6": true}

	result, err := thumbs.AssetThumbnails(context.Background(), []int64{5, 6}, "", "")
	require.NoError(t, err)

	assert.Contains(t, result, int64(5))
	assert.NotContains(t, result, int64(6), "a pending render must not be cached or returned")

	// The pending id is requested again next time
	_, err = thumbs.AssetThumbnails(context.Background(), []int64{5, 6}, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"6"}, upstream.requested[1])
}

func TestAvatarHeadshotsCachedSeparatelyByShape(t *testing.T) {
	thumbs, upstream := newThumbnailFixture(t)
	ctx := context.Background()

	_, err := thumbs.AvatarHeadshots(ctx, []int64{10}, "", "", true)
	require.NoError(t, err)

	// Same user, non-circular: a distinct cache entry, so upstream is hit
	_, err = thumbs.AvatarHeadshots(ctx, []int64{10}, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)

	// Circular again: served from cache
	_, err = thumbs.AvatarHeadshots(ctx, []int64{10}, "", "", true)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.calls)
}
