package model

import "time"

// TradeStatus is the lifecycle state of a trade as shown to the frontend.
type TradeStatus string

const (
	TradeStatusInbound   TradeStatus = "Inbound"
	TradeStatusOutbound  TradeStatus = "Outbound"
	TradeStatusCompleted TradeStatus = "Completed"
	TradeStatusDeclined  TradeStatus = "Declined"
	TradeStatusOpen      TradeStatus = "Open"
)

// TradeKind selects which upstream trade listing to fetch.
type TradeKind string

const (
	TradeKindInbound   TradeKind = "inbound"
	TradeKindOutbound  TradeKind = "outbound"
	TradeKindCompleted TradeKind = "completed"
)

// ValidTradeKind reports whether k names one of the three upstream listings.
func ValidTradeKind(k TradeKind) bool {
	return k == TradeKindInbound || k == TradeKindOutbound || k == TradeKindCompleted
}

// TradeUser identifies the counterparty of a trade.
type TradeUser struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar"`
}

// TradeItems holds the two sides of a trade.
//
// Offering is what the counterparty gives to the current user and
// Requesting is what the current user gives up. The naming is inverted
// relative to the upstream "offers" array on purpose; the frontend and the
// counter-trade construction both depend on exactly this convention.
type TradeItems struct {
	Offering   []TradeItem `json:"offering"`
	Requesting []TradeItem `json:"requesting"`
}

// Trade is the canonical trade shape served to the frontend.
type Trade struct {
	ID         int64       `json:"id"`
	User       TradeUser   `json:"user"`
	Status     TradeStatus `json:"status"`
	Items      TradeItems  `json:"items"`
	Created    time.Time   `json:"created"`
	Expiration *time.Time  `json:"expiration,omitempty"`
	IsActive   *bool       `json:"isActive,omitempty"`
}

// PlaceholderAvatarURL is used when an avatar lookup fails; the page still
// renders with a generic image instead of failing wholesale.
const PlaceholderAvatarURL = "https://tr.rbxcdn.com/placeholder-avatar/150/150/AvatarHeadshot/Png"

// PlaceholderTrade is returned when a trade detail payload cannot be
// normalized. It is terminal and well-formed so the render layer never sees
// an error value.
func PlaceholderTrade(id int64) *Trade {
	return &Trade{
		ID:     id,
		Status: TradeStatusDeclined,
		User: TradeUser{
			Name:        "unknown",
			DisplayName: "Error Processing Trade",
			Avatar:      PlaceholderAvatarURL,
		},
		Items: TradeItems{
			Offering:   []TradeItem{},
			Requesting: []TradeItem{},
		},
		Created: time.Time{},
	}
}

// TradePage is one page of trade summaries plus the upstream cursors.
type TradePage struct {
	Trades         []Trade `json:"trades"`
	NextCursor     string  `json:"nextCursor,omitempty"`
	PreviousCursor string  `json:"previousCursor,omitempty"`
}

// TradeDashboard aggregates the three listings for the overview screen.
// Warnings carries per-kind fetch failures without blanking the kinds that
// succeeded.
type TradeDashboard struct {
	Inbound   []Trade  `json:"inbound"`
	Outbound  []Trade  `json:"outbound"`
	Completed []Trade  `json:"completed"`
	Warnings  []string `json:"warnings,omitempty"`
}

// CounterTradeRequest is the body of a counter-trade proposal. The offer
// and request item lists are the original trade's lists swapped.
type CounterTradeRequest struct {
	TradeID      int64   `json:"tradeId" binding:"required"`
	OfferItems   []int64 `json:"offerItems" binding:"required,min=1"`
	RequestItems []int64 `json:"requestItems" binding:"required,min=1"`
}
