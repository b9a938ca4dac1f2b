package factory

import (
	"time"

	"github.com/nftbay/marketplace-engine/internal/entity"
)

func CreateListingAction(listing entity.Listing, at time.Time) entity.MarketplaceAction {
	return entity.MarketplaceAction{
		AssetId:    listing.AssetId,
		Action:     entity.ListingAction,
		From:       listing.Seller,
		Price:      listing.Price,
		OccurredAt: at,
	}
}

func CreateDelistingAction(listing entity.Listing, at time.Time) entity.MarketplaceAction {
	return entity.MarketplaceAction{
		AssetId:    listing.AssetId,
		Action:     entity.DelistingAction,
		From:       listing.Seller,
		OccurredAt: at,
	}
}

func CreateSaleAction(sale entity.Sale, at time.Time) entity.MarketplaceAction {
	return entity.MarketplaceAction{
		AssetId:    sale.AssetId,
		SaleId:     sale.SaleId,
		Action:     entity.SaleAction,
		From:       sale.Seller,
		To:         sale.Buyer,
		Price:      sale.Price,
		Fee:        sale.Fee,
		OccurredAt: at,
	}
}
