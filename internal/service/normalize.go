package service

import (
	"fmt"
	"strconv"

	"github.com/rotools/trader/internal/model"
)

// NormalizeTrade converts a raw trade detail document into the canonical
// Trade shape. The counterparty's offer is the one whose user id matches
// the document's top-level user id; it must never be assumed to sit at
// index 0. The counterparty's assets become Items.Offering (what the
// current user would receive), the remaining offer's assets become
// Items.Requesting (what the current user gives up).
//
// pricing may be nil; item values then stay at the unassigned sentinel and
// consumers fall back to RAP through EffectiveValue.
func NormalizeTrade(detail *model.RobloxTradeDetail, currentUserID int64, pricing map[int64]model.ItemDetails) (*model.Trade, error) {
	if detail == nil {
		return nil, fmt.Errorf("trade detail is nil")
	}
	if len(detail.Offers) != 2 {
		return nil, fmt.Errorf("trade %d: expected exactly 2 offers, got %d", detail.ID, len(detail.Offers))
	}
	if detail.Offers[0].User.ID == detail.Offers[1].User.ID {
		return nil, fmt.Errorf("trade %d: both offers belong to user %d", detail.ID, detail.Offers[0].User.ID)
	}

	var theirOffer, myOffer *model.RobloxTradeOffer
	for i := range detail.Offers {
		if detail.Offers[i].User.ID == detail.User.ID {
			theirOffer = &detail.Offers[i]
		} else {
			myOffer = &detail.Offers[i]
		}
	}
	if theirOffer == nil || myOffer == nil {
		return nil, fmt.Errorf("trade %d: no offer matches counterparty user %d", detail.ID, detail.User.ID)
	}
	if currentUserID != 0 && myOffer.User.ID != currentUserID {
		return nil, fmt.Errorf("trade %d: remaining offer belongs to user %d, not the authenticated user %d",
			detail.ID, myOffer.User.ID, currentUserID)
	}

	trade := &model.Trade{
		ID: detail.ID,
		User: model.TradeUser{
			ID:          theirOffer.User.ID,
			Name:        theirOffer.User.Name,
			DisplayName: theirOffer.User.DisplayName,
			Avatar:      model.PlaceholderAvatarURL,
		},
		Status:     mapTradeStatus(detail.Status),
		Created:    detail.Created,
		Expiration: detail.Expiration,
		Items: model.TradeItems{
			Offering:   mapTradeItems(theirOffer.UserAssets, pricing),
			Requesting: mapTradeItems(myOffer.UserAssets, pricing),
		},
	}
	isActive := detail.IsActive
	trade.IsActive = &isActive

	return trade, nil
}

func mapTradeItems(assets []model.RobloxUserAsset, pricing map[int64]model.ItemDetails) []model.TradeItem {
	items := make([]model.TradeItem, 0, len(assets))
	for _, asset := range assets {
		items = append(items, mapTradeItem(asset, pricing))
	}
	return items
}

// mapTradeItem keeps RAP and assessed value distinct: RAP comes from the
// platform's recentAveragePrice, the value only from the pricing dataset.
// Without a dataset entry the value stays at the unassigned sentinel.
func mapTradeItem(asset model.RobloxUserAsset, pricing map[int64]model.ItemDetails) model.TradeItem {
	rap := asset.RecentAveragePrice
	value := float64(model.UnassignedValue)
	name := asset.Name
	assetType := asset.AssetType
	if assetType == "" {
		assetType = "Collectible"
	}

	if d, ok := pricing[asset.AssetID]; ok {
		if d.HasValue() {
			value = d.Value
		}
		if name == "" {
			name = d.Name
		}
	}

	item := model.TradeItem{
		ID:        asset.AssetID,
		Name:      name,
		AssetType: assetType,
		RAP:       &rap,
		Value:     &value,
	}
	if asset.SerialNumber != nil {
		serial := strconv.FormatInt(*asset.SerialNumber, 10)
		item.Serial = &serial
	}
	return item
}

// mapTradeStatus maps upstream status strings onto the local enum. Expired
// and error states collapse into Declined because both are terminal for the
// frontend.
func mapTradeStatus(status string) model.TradeStatus {
	switch status {
	case "Open", "Pending", "Processing":
		return model.TradeStatusOpen
	case "Completed":
		return model.TradeStatusCompleted
	case "Declined", "Expired", "RejectedDueToError":
		return model.TradeStatusDeclined
	case "Countered":
		return model.TradeStatusOutbound
	default:
		return model.TradeStatusOpen
	}
}
