package ledger

import (
	"github.com/nftbay/marketplace-engine/internal/entity"
)

// ListingStore holds the marketplace's listings, keyed by asset id. The
// engine is the sole mutator; absence reads back as the zero Listing.
type ListingStore struct {
	listings map[string]entity.Listing
}

func NewListingStore() *ListingStore {
	return &ListingStore{listings: make(map[string]entity.Listing)}
}

func (s *ListingStore) Get(assetId string) entity.Listing {
	return s.listings[assetId]
}

func (s *ListingStore) Put(listing entity.Listing) {
	s.listings[listing.AssetId] = listing
}

func (s *ListingStore) Delete(assetId string) {
	delete(s.listings, assetId)
}
