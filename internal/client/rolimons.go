package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/model"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RolimonsClient handles communication with the Rolimons pricing API
type RolimonsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRolimonsClient creates a new Rolimons API client
func NewRolimonsClient(cfg config.RolimonsConfig, logger *zap.Logger) *RolimonsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RolimonsClient{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// ItemDetails fetches the full item pricing dataset. Records arrive as
// positional arrays keyed by stringified asset id; malformed records are
// skipped with a warning rather than failing the whole dataset.
func (c *RolimonsClient) ItemDetails(ctx context.Context) (map[int64]model.ItemDetails, error) {
	reqURL := fmt.Sprintf("%s/items/v1/itemdetails", c.baseURL)

	var envelope model.RolimonsItemDetails
	if err := c.getJSON(ctx, reqURL, &envelope); err != nil {
		return nil, err
	}
	if !envelope.Success {
		return nil, fmt.Errorf("rolimons item details request unsuccessful")
	}

	items := make(map[int64]model.ItemDetails, len(envelope.Items))
	for key, record := range envelope.Items {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			c.logger.Warn("Skipping item with non-numeric id", zap.String("key", key))
			continue
		}
		details, err := model.ItemDetailsFromRecord(id, record)
		if err != nil {
			c.logger.Warn("Skipping malformed item record",
				zap.Int64("assetId", id),
				zap.Error(err))
			continue
		}
		items[id] = details
	}

	c.logger.Debug("Fetched Rolimons item details", zap.Int("count", len(items)))
	return items, nil
}

// PlayerAssets fetches the limited items a player owns.
func (c *RolimonsClient) PlayerAssets(ctx context.Context, userID int64) (*model.RolimonsPlayerAssets, error) {
	reqURL := fmt.Sprintf("%s/players/v1/playerassets/%d", c.baseURL, userID)

	var assets model.RolimonsPlayerAssets
	if err := c.getJSON(ctx, reqURL, &assets); err != nil {
		return nil, err
	}
	if !assets.Success {
		return nil, fmt.Errorf("rolimons player assets request unsuccessful for user %d", userID)
	}
	return &assets, nil
}

func (c *RolimonsClient) getJSON(ctx context.Context, url string, out interface{}) error {
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Rolimons API request failed, will retry",
				zap.Error(err),
				zap.String("url", url))
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= http.StatusInternalServerError {
			bodyBytes, _ := io.ReadAll(resp.Body)
			c.logger.Warn("Rolimons API server error, will retry",
				zap.Int("statusCode", resp.StatusCode),
				zap.String("url", url))
			return &UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
		}

		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			c.logger.Error("Rolimons API error response",
				zap.Int("statusCode", resp.StatusCode),
				zap.String("response", string(bodyBytes)))
			return backoff.Permanent(&UpstreamError{StatusCode: resp.StatusCode, Body: string(bodyBytes)})
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response: %w", err))
		}
		return nil
	}

	return backoff.Retry(operation, backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxRetries), ctx))
}
