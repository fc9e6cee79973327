package model

import (
	"fmt"
	"strconv"
)

// UnassignedValue is the sentinel Rolimons uses for items without a
// community-assessed value. It means "unknown", never "worst" or zero.
const UnassignedValue = -1

// TradeItem is the canonical shape for a single asset inside a trade.
type TradeItem struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	AssetType string   `json:"assetType"`
	Thumbnail string   `json:"thumbnail"`
	RAP       *float64 `json:"rap"`
	Value     *float64 `json:"value"`
	Serial    *string  `json:"serial"`
}

// EffectiveValue resolves the number shown or summed anywhere a "value" is
// needed: the assessed value when one exists, otherwise the RAP.
func (i TradeItem) EffectiveValue() float64 {
	if i.Value != nil && *i.Value != UnassignedValue {
		return *i.Value
	}
	if i.RAP != nil {
		return *i.RAP
	}
	return 0
}

// ItemDetails is one decoded record from the Rolimons item details dataset.
type ItemDetails struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Acronym      string  `json:"acronym"`
	RAP          float64 `json:"rap"`
	Value        float64 `json:"value"`
	DefaultValue float64 `json:"defaultValue"`
	Demand       int     `json:"demand"`
	Trend        int     `json:"trend"`
	Projected    bool    `json:"projected"`
	Hyped        bool    `json:"hyped"`
	Rare         bool    `json:"rare"`
}

// HasValue reports whether the item carries a real assessed value.
func (d ItemDetails) HasValue() bool {
	return d.Value != UnassignedValue
}

// EffectiveValue applies the same fallback rule as TradeItem.EffectiveValue.
func (d ItemDetails) EffectiveValue() float64 {
	if d.HasValue() {
		return d.Value
	}
	return d.RAP
}

// ItemDetailsFromRecord decodes the positional array Rolimons serves per
// item: [name, acronym, rap, value, default_value, demand, trend, projected,
// hyped, rare]. Numbers arrive inconsistently as strings or JSON numbers,
// so every slot is coerced individually. Trailing extra slots are ignored.
func ItemDetailsFromRecord(id int64, record []interface{}) (ItemDetails, error) {
	if len(record) < 10 {
		return ItemDetails{}, fmt.Errorf("item %d: expected at least 10 fields, got %d", id, len(record))
	}

	name, err := fieldString(record[0])
	if err != nil {
		return ItemDetails{}, fmt.Errorf("item %d: name: %w", id, err)
	}
	acronym, _ := fieldString(record[1])

	rap, err := fieldFloat(record[2])
	if err != nil {
		return ItemDetails{}, fmt.Errorf("item %d: rap: %w", id, err)
	}
	value, err := fieldFloat(record[3])
	if err != nil {
		return ItemDetails{}, fmt.Errorf("item %d: value: %w", id, err)
	}
	defaultValue, err := fieldFloat(record[4])
	if err != nil {
		return ItemDetails{}, fmt.Errorf("item %d: default value: %w", id, err)
	}
	demand, err := fieldFloat(record[5])
	if err != nil {
		return ItemDetails{}, fmt.Errorf("item %d: demand: %w", id, err)
	}
	trend, err := fieldFloat(record[6])
	if err != nil {
		return ItemDetails{}, fmt.Errorf("item %d: trend: %w", id, err)
	}
	projected, _ := fieldFloat(record[7])
	hyped, _ := fieldFloat(record[8])
	rare, _ := fieldFloat(record[9])

	return ItemDetails{
		ID:           id,
		Name:         name,
		Acronym:      acronym,
		RAP:          rap,
		Value:        value,
		DefaultValue: defaultValue,
		Demand:       int(demand),
		Trend:        int(trend),
		Projected:    projected != 0,
		Hyped:        hyped != 0,
		Rare:         rare != 0,
	}, nil
}

// InventoryItem is an owned asset enriched with pricing data.
type InventoryItem struct {
	AssetID   int64   `json:"assetId"`
	Name      string  `json:"name"`
	Acronym   string  `json:"acronym,omitempty"`
	RAP       float64 `json:"rap"`
	Value     float64 `json:"value"`
	Demand    int     `json:"demand"`
	Trend     int     `json:"trend"`
	Projected bool    `json:"projected"`
	Hyped     bool    `json:"hyped"`
	Rare      bool    `json:"rare"`
	Copies    int     `json:"copies"`
}

func fieldString(v interface{}) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return s, nil
}

func fieldFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number %q", t)
		}
		return f, nil
	case nil:
		return UnassignedValue, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}
