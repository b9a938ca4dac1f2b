package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Listing is a seller's open offer to sell one asset at a fixed price.
// The zero value is the "no listing" state.
type Listing struct {
	AssetId string `json:"assetId"`
	Seller  string `json:"seller"`
	Price   uint64 `json:"price"`
	Active  bool   `json:"active"`
}

func (l Listing) Slug() string {
	return CreateListingSlug(l.AssetId)
}

func CreateListingSlug(assetId string) string {
	return slug.Make(fmt.Sprintf("listing-%s", assetId))
}
