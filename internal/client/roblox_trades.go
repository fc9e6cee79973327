package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rotools/trader/internal/model"
)

// DefaultTradePageSize matches the upstream default page size.
const DefaultTradePageSize = 25

// ListTrades fetches one page of trade summaries of the given kind, ordered
// most-recent-first by the upstream Desc sort. The page is returned as-is;
// no re-sorting happens locally.
func (c *RobloxClient) ListTrades(ctx context.Context, cookie string, kind model.TradeKind, limit int, cursor, sortOrder string) (*model.RobloxTradeList, error) {
	if !model.ValidTradeKind(kind) {
		return nil, fmt.Errorf("invalid trade kind %q", kind)
	}
	if limit <= 0 {
		limit = DefaultTradePageSize
	}
	if sortOrder == "" {
		sortOrder = "Desc"
	}

	params := url.Values{}
	params.Add("limit", strconv.Itoa(limit))
	params.Add("sortOrder", sortOrder)
	if cursor != "" {
		params.Add("cursor", cursor)
	}

	reqURL := fmt.Sprintf("%s/v1/trades/%s?%s", c.tradesURL, kind, params.Encode())

	var list model.RobloxTradeList
	if err := c.getJSON(ctx, reqURL, cookie, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetTrade fetches the full detail document for one trade.
func (c *RobloxClient) GetTrade(ctx context.Context, cookie string, tradeID int64) (*model.RobloxTradeDetail, error) {
	reqURL := fmt.Sprintf("%s/v1/trades/%d", c.tradesURL, tradeID)

	var detail model.RobloxTradeDetail
	if err := c.getJSON(ctx, reqURL, cookie, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UnreadTradeCount fetches the number of unread inbound trades.
func (c *RobloxClient) UnreadTradeCount(ctx context.Context, cookie string) (int64, error) {
	reqURL := fmt.Sprintf("%s/v1/trades/inbound/count", c.tradesURL)

	var response struct {
		Count int64 `json:"count"`
	}
	if err := c.getJSON(ctx, reqURL, cookie, &response); err != nil {
		return 0, err
	}
	return response.Count, nil
}

// AcceptTrade accepts an inbound trade.
func (c *RobloxClient) AcceptTrade(ctx context.Context, cookie string, tradeID int64) error {
	reqURL := fmt.Sprintf("%s/v1/trades/%d/accept", c.tradesURL, tradeID)
	return c.postJSON(ctx, reqURL, cookie, nil, nil)
}

// DeclineTrade declines a trade.
func (c *RobloxClient) DeclineTrade(ctx context.Context, cookie string, tradeID int64) error {
	reqURL := fmt.Sprintf("%s/v1/trades/%d/decline", c.tradesURL, tradeID)
	return c.postJSON(ctx, reqURL, cookie, nil, nil)
}

// CounterOffer is one side of a counter-trade proposal in upstream terms.
type CounterOffer struct {
	UserID       int64   `json:"userId"`
	UserAssetIDs []int64 `json:"userAssetIds"`
}

// CounterTrade sends a counter proposal for an existing trade.
func (c *RobloxClient) CounterTrade(ctx context.Context, cookie string, tradeID int64, offers []CounterOffer) (int64, error) {
	reqURL := fmt.Sprintf("%s/v1/trades/%d/counter", c.tradesURL, tradeID)

	body := struct {
		Offers []CounterOffer `json:"offers"`
	}{Offers: offers}

	var response struct {
		ID int64 `json:"id"`
	}
	if err := c.postJSON(ctx, reqURL, cookie, body, &response); err != nil {
		return 0, err
	}
	return response.ID, nil
}
