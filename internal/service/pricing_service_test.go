package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rotools/trader/internal/client"
	"github.com/rotools/trader/internal/config"
	"github.com/rotools/trader/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRolimons struct {
	itemCalls int
	itemsFail bool
	assets    map[string][]int64
}

func (f *fakeRolimons) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/items/v1/itemdetails":
			f.itemCalls++
			if f.itemsFail {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			json.NewEncoder(w).Encode(model.RolimonsItemDetails{
				Success:   true,
				ItemCount: 2,
				Items: map[string][]interface{}{
					"22":     {"Dominus", "DOM", float64(50000), float64(-1), float64(48000), float64(4), float64(2), float64(0), float64(1), float64(0)},
					"33":     {"Fedora", "F", float64(100), float64(120), float64(120), float64(1), float64(1), float64(0), float64(0), float64(0)},
					"broken": {"only-one-field"},
				},
			})

		default:
			json.NewEncoder(w).Encode(model.RolimonsPlayerAssets{
				Success:      true,
				PlayerAssets: f.assets,
			})
		}
	}
}

func newPricingFixture(t *testing.T) (*PricingService, *fakeRolimons) {
	t.Helper()

	fake := &fakeRolimons{assets: map[string][]int64{}}
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	rolimons := client.NewRolimonsClient(config.RolimonsConfig{URL: server.URL}, zap.NewNop())
	return NewPricingService(rolimons, 5*time.Minute, zap.NewNop()), fake
}

func TestItemDetailsCachedAcrossCalls(t *testing.T) {
	pricing, fake := newPricingFixture(t)
	ctx := context.Background()

	first, err := pricing.ItemDetails(ctx)
	require.NoError(t, err)
	second, err := pricing.ItemDetails(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, fake.itemCalls)

	// Malformed records are skipped, not fatal
	assert.Len(t, first, 2)
	assert.Equal(t, "Dominus", first[22].Name)
}

func TestItemDetailsFailureNotCached(t *testing.T) {
	pricing, fake := newPricingFixture(t)
	ctx := context.Background()

	fake.itemsFail = true
	_, err := pricing.ItemDetails(ctx)
	require.Error(t, err)

	fake.itemsFail = false
	details, err := pricing.ItemDetails(ctx)
	require.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Equal(t, 2, fake.itemCalls)
}

func TestLookup(t *testing.T) {
	pricing, _ := newPricingFixture(t)

	d, ok, err := pricing.Lookup(context.Background(), 22)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(50000), d.RAP)
	assert.False(t, d.HasValue())

	_, ok, err = pricing.Lookup(context.Background(), 99999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateForcesDatasetRefetch(t *testing.T) {
	pricing, fake := newPricingFixture(t)
	ctx := context.Background()

	_, err := pricing.ItemDetails(ctx)
	require.NoError(t, err)

	pricing.Invalidate()
	_, err = pricing.ItemDetails(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.itemCalls)
}

func TestPlayerInventoryEnrichment(t *testing.T) {
	pricing, fake := newPricingFixture(t)
	fake.assets = map[string][]int64{
		"22":    {501, 502},
		"404":   {601},
		"weird": {701},
	}

	inventory, err := pricing.PlayerInventory(context.Background(), 1000)
	require.NoError(t, err)
	require.Len(t, inventory, 2, "non-numeric asset keys are skipped")

	byID := map[int64]model.InventoryItem{}
	for _, item := range inventory {
		byID[item.AssetID] = item
	}

	dominus := byID[22]
	assert.Equal(t, "Dominus", dominus.Name)
	assert.Equal(t, 2, dominus.Copies)
	assert.Equal(t, float64(50000), dominus.RAP)

	unknown := byID[404]
	assert.Empty(t, unknown.Name, "assets missing from the dataset are kept, not dropped")
	assert.Equal(t, 1, unknown.Copies)
	assert.Equal(t, float64(model.UnassignedValue), unknown.Value)
}
