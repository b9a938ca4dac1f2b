package entity

import (
	"crypto/md5"
	"fmt"
	"time"
)

// MarketplaceAction is the indexed form of a listing lifecycle change or a
// completed sale, written to Elasticsearch for external observers.
type MarketplaceAction struct {
	AssetId    string     `json:"assetId"`
	SaleId     uint64     `json:"saleId,omitempty"`
	Action     ActionType `json:"action"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	Price      uint64     `json:"price"`
	Fee        uint64     `json:"fee"`
	OccurredAt time.Time  `json:"occurredAt"`
}

type ActionType string

const (
	ListingAction   ActionType = "listing"
	DelistingAction ActionType = "delisting"
	SaleAction      ActionType = "sale"
)

func (a MarketplaceAction) Slug() string {
	return CreateMarketplaceActionSlug(a.AssetId, a.SaleId, string(a.Action), a.OccurredAt.UnixNano())
}

func CreateMarketplaceActionSlug(assetId string, saleId uint64, action string, nanos int64) string {
	data := []byte(fmt.Sprintf("mpaction-%s-%d-%s-%d", assetId, saleId, action, nanos))
	return fmt.Sprintf("%x", md5.Sum(data))
}
