package model

// Wire types for the Rolimons pricing APIs.

// RolimonsItemDetails is the envelope of the item details dataset. Items
// maps a stringified asset id to a positional record decoded by
// ItemDetailsFromRecord.
type RolimonsItemDetails struct {
	Success   bool                     `json:"success"`
	ItemCount int                      `json:"item_count"`
	Items     map[string][]interface{} `json:"items"`
}

// RolimonsPlayerAssets is the player assets response. PlayerAssets maps a
// stringified asset id to the owned copy ids; Holds lists copies locked by
// an active hold.
type RolimonsPlayerAssets struct {
	Success          bool               `json:"success"`
	PlayerTerminated bool               `json:"playerTerminated"`
	Holds            []int64            `json:"holds"`
	PlayerAssets     map[string][]int64 `json:"playerAssets"`
}
