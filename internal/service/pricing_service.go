package service

import (
	"context"
	"strconv"
	"time"

	"github.com/rotools/trader/internal/cache"
	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/model"

	"go.uber.org/zap"
)

const itemDetailsKey = "itemdetails"

// PricingService serves the Rolimons item pricing dataset through a TTL
// cache. The dataset is fetched lazily and invalidated wholesale on expiry;
// there is no per-item invalidation.
type PricingService struct {
	rolimons *client.RolimonsClient
	items    *cache.Store[map[int64]model.ItemDetails]
	logger   *zap.Logger
}

// NewPricingService creates a new pricing service with the given dataset TTL.
func NewPricingService(rolimons *client.RolimonsClient, ttl time.Duration, logger *zap.Logger) *PricingService {
	return &PricingService{
		rolimons: rolimons,
		items:    cache.New[map[int64]model.ItemDetails](ttl),
		logger:   logger,
	}
}

// ItemDetails returns the pricing dataset, fetching it from Rolimons when
// the cached copy is missing or stale. A failed fetch is never cached.
func (s *PricingService) ItemDetails(ctx context.Context) (map[int64]model.ItemDetails, error) {
	return s.items.GetOrFetch(ctx, itemDetailsKey, func(ctx context.Context) (map[int64]model.ItemDetails, error) {
		details, err := s.rolimons.ItemDetails(ctx)
		if err != nil {
			s.logger.Error("Failed to fetch item details dataset", zap.Error(err))
			return nil, err
		}
		return details, nil
	})
}

// Lookup returns the pricing record for one asset id.
func (s *PricingService) Lookup(ctx context.Context, assetID int64) (model.ItemDetails, bool, error) {
	details, err := s.ItemDetails(ctx)
	if err != nil {
		return model.ItemDetails{}, false, err
	}
	d, ok := details[assetID]
	return d, ok, nil
}

// Invalidate drops the cached dataset.
func (s *PricingService) Invalidate() {
	s.items.Invalidate(itemDetailsKey)
}

// PlayerInventory fetches a player's limited items and enriches each with
// pricing data. Assets missing from the pricing dataset are kept with their
// id only rather than dropped.
func (s *PricingService) PlayerInventory(ctx context.Context, userID int64) ([]model.InventoryItem, error) {
	assets, err := s.rolimons.PlayerAssets(ctx, userID)
	if err != nil {
		return nil, err
	}

	details, err := s.ItemDetails(ctx)
	if err != nil {
		return nil, err
	}

	inventory := make([]model.InventoryItem, 0, len(assets.PlayerAssets))
	for key, copies := range assets.PlayerAssets {
		assetID, ok := parseAssetID(key)
		if !ok {
			s.logger.Warn("Skipping inventory entry with non-numeric id", zap.String("key", key))
			continue
		}

		item := model.InventoryItem{
			AssetID: assetID,
			Copies:  len(copies),
		}
		if d, ok := details[assetID]; ok {
			item.Name = d.Name
			item.Acronym = d.Acronym
			item.RAP = d.RAP
			item.Value = d.Value
			item.Demand = d.Demand
			item.Trend = d.Trend
			item.Projected = d.Projected
			item.Hyped = d.Hyped
			item.Rare = d.Rare
		} else {
			item.Value = model.UnassignedValue
		}
		inventory = append(inventory, item)
	}

	return inventory, nil
}

func parseAssetID(key string) (int64, bool) {
	id, err := strconv.ParseInt(key, 10, 64)
	return id, err == nil
}
