package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemDetailsFromRecord(t *testing.T) {
	tests := []struct {
		name    string
		record  []interface{}
		want    ItemDetails
		wantErr bool
	}{
		{
			name:   "all numbers",
			record: []interface{}{"Valkyrie Helm", "VH", float64(60000), float64(62000), float64(62000), float64(8), float64(2), float64(0), float64(0), float64(1)},
			want: ItemDetails{
				ID: 1365767, Name: "Valkyrie Helm", Acronym: "VH",
				RAP: 60000, Value: 62000, DefaultValue: 62000,
				Demand: 8, Trend: 2, Rare: true,
			},
		},
		{
			name:   "numbers arriving as strings with unassigned value",
			record: []interface{}{"Dominus Empyreus", "DOM", "50000", "-1", "48000", "4", "2", float64(0), float64(1), float64(0)},
			want: ItemDetails{
				ID: 1365767, Name: "Dominus Empyreus", Acronym: "DOM",
				RAP: 50000, Value: -1, DefaultValue: 48000,
				Demand: 4, Trend: 2, Hyped: true,
			},
		},
		{
			name:   "nil slots coerce to the unassigned sentinel",
			record: []interface{}{"Sparkle Time Fedora", "STF", float64(200000), nil, float64(210000), nil, nil, float64(0), float64(0), float64(0)},
			want: ItemDetails{
				ID: 1365767, Name: "Sparkle Time Fedora", Acronym: "STF",
				RAP: 200000, Value: -1, DefaultValue: 210000,
				Demand: -1, Trend: -1,
			},
		},
		{
			name:   "trailing extra slots are ignored",
			record: []interface{}{"Fedora", "F", float64(100), float64(120), float64(120), float64(1), float64(1), float64(0), float64(0), float64(0), "extra", float64(42)},
			want: ItemDetails{
				ID: 1365767, Name: "Fedora", Acronym: "F",
				RAP: 100, Value: 120, DefaultValue: 120,
				Demand: 1, Trend: 1,
			},
		},
		{
			name:    "too few fields",
			record:  []interface{}{"Fedora", "F", float64(100)},
			wantErr: true,
		},
		{
			name:    "non-numeric rap",
			record:  []interface{}{"Fedora", "F", "not-a-number", float64(120), float64(120), float64(1), float64(1), float64(0), float64(0), float64(0)},
			wantErr: true,
		},
		{
			name:    "name is not a string",
			record:  []interface{}{float64(7), "F", float64(100), float64(120), float64(120), float64(1), float64(1), float64(0), float64(0), float64(0)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ItemDetailsFromRecord(1365767, tt.record)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTradeItemEffectiveValue(t *testing.T) {
	rap := float64(50000)
	assessed := float64(48000)
	unassigned := float64(UnassignedValue)

	tests := []struct {
		name string
		item TradeItem
		want float64
	}{
		{
			name: "assessed value wins over rap",
			item: TradeItem{RAP: &rap, Value: &assessed},
			want: 48000,
		},
		{
			name: "unassigned value falls back to rap",
			item: TradeItem{RAP: &rap, Value: &unassigned},
			want: 50000,
		},
		{
			name: "no value falls back to rap",
			item: TradeItem{RAP: &rap},
			want: 50000,
		},
		{
			name: "no pricing at all",
			item: TradeItem{},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.EffectiveValue())
		})
	}
}

func TestItemDetailsEffectiveValue(t *testing.T) {
	withValue := ItemDetails{RAP: 50000, Value: 48000}
	assert.Equal(t, float64(48000), withValue.EffectiveValue())
	assert.True(t, withValue.HasValue())

	unassigned := ItemDetails{RAP: 50000, Value: UnassignedValue}
	assert.Equal(t, float64(50000), unassigned.EffectiveValue())
	assert.False(t, unassigned.HasValue())
}
