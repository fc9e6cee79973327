package model

import "time"

// Wire types for the Roblox platform APIs. Field names follow the upstream
// JSON exactly; these are never served to the frontend directly.

// RobloxUser is the user record embedded in trade payloads.
type RobloxUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// RobloxUserAsset is one asset inside a trade offer.
type RobloxUserAsset struct {
	ID                 int64   `json:"id"`
	AssetID            int64   `json:"assetId"`
	Name               string  `json:"name"`
	SerialNumber       *int64  `json:"serialNumber"`
	RecentAveragePrice float64 `json:"recentAveragePrice"`
	OriginalPrice      float64 `json:"originalPrice"`
	AssetType          string  `json:"assetType,omitempty"`
}

// RobloxTradeOffer is one side of a trade as the platform reports it.
type RobloxTradeOffer struct {
	User       RobloxUser        `json:"user"`
	UserAssets []RobloxUserAsset `json:"userAssets"`
	Robux      int64             `json:"robux"`
}

// RobloxTradeDetail is the full trade document from the trades API. The
// top-level User is the counterparty as designated upstream; it is not safe
// to assume it matches offer index 0.
type RobloxTradeDetail struct {
	ID         int64              `json:"id"`
	User       RobloxUser         `json:"user"`
	Status     string             `json:"status"`
	Offers     []RobloxTradeOffer `json:"offers"`
	Created    time.Time          `json:"created"`
	Expiration *time.Time         `json:"expiration"`
	IsActive   bool               `json:"isActive"`
}

// RobloxTradeSummary is one entry of a paginated trade listing. Listings
// never include item contents.
type RobloxTradeSummary struct {
	ID         int64      `json:"id"`
	User       RobloxUser `json:"user"`
	Status     string     `json:"status"`
	Created    time.Time  `json:"created"`
	Expiration *time.Time `json:"expiration"`
	IsActive   bool       `json:"isActive"`
}

// RobloxTradeList is a cursor-paginated page of trade summaries.
type RobloxTradeList struct {
	PreviousPageCursor *string              `json:"previousPageCursor"`
	NextPageCursor     *string              `json:"nextPageCursor"`
	Data               []RobloxTradeSummary `json:"data"`
}

// ThumbnailResult is one resolved thumbnail from the batch thumbnails API.
type ThumbnailResult struct {
	TargetID int64  `json:"targetId"`
	State    string `json:"state"`
	ImageURL string `json:"imageUrl"`
}

// ThumbnailBatch is the envelope of the batch thumbnails API.
type ThumbnailBatch struct {
	Data []ThumbnailResult `json:"data"`
}

// AuthenticatedUser is the response of the authenticated-user check.
type AuthenticatedUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// RefreshResult carries the outcome of a cookie refresh exchange. The
// upstream may rotate the cookie; callers must persist RefreshedCookie.
type RefreshResult struct {
	RefreshedCookie string `json:"refreshedCookie"`
	AuthTicket      string `json:"authTicket"`
}
