package indexer

import (
	"time"

	"github.com/nftbay/marketplace-engine/internal/dev"
	"github.com/nftbay/marketplace-engine/internal/elastic_search"
	"github.com/nftbay/marketplace-engine/internal/entity"
	"github.com/nftbay/marketplace-engine/internal/factory"
	"go.uber.org/zap"
)

// ActionIndexer consumes engine events and writes listing, sale, and action
// documents into Elasticsearch. Handlers take interface{} so they can be
// registered directly as event listeners.
type ActionIndexer interface {
	IndexListing(msg interface{})
	IndexListingUpdate(msg interface{})
	IndexDelisting(msg interface{})
	IndexSale(msg interface{})
	IndexIncident(msg interface{})
}

type actionIndexer struct {
	elastic elastic_search.Index
}

func NewActionIndexer(elastic elastic_search.Index) ActionIndexer {
	return actionIndexer{elastic}
}

func (i actionIndexer) IndexListing(msg interface{}) {
	listing, ok := msg.(entity.Listing)
	if !ok {
		zap.L().Error("ActionIndexer: Unexpected listing payload")
		return
	}

	zap.L().With(
		zap.String("assetId", listing.AssetId),
		zap.String("seller", listing.Seller),
		zap.Uint64("price", listing.Price),
	).Info("ActionIndexer: Index listing")

	i.elastic.AddIndexRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingCreate)
	i.elastic.AddIndexRequest(elastic_search.ActionIndex.Get(), factory.CreateListingAction(listing, time.Now()), elastic_search.ActionCreate)
	i.elastic.Persist()
}

func (i actionIndexer) IndexListingUpdate(msg interface{}) {
	listing, ok := msg.(entity.Listing)
	if !ok {
		zap.L().Error("ActionIndexer: Unexpected listing payload")
		return
	}

	zap.L().With(
		zap.String("assetId", listing.AssetId),
		zap.Uint64("price", listing.Price),
	).Info("ActionIndexer: Index listing update")

	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingUpdate)
	i.elastic.AddIndexRequest(elastic_search.ActionIndex.Get(), factory.CreateListingAction(listing, time.Now()), elastic_search.ActionCreate)
	i.elastic.Persist()
}

func (i actionIndexer) IndexDelisting(msg interface{}) {
	listing, ok := msg.(entity.Listing)
	if !ok {
		zap.L().Error("ActionIndexer: Unexpected listing payload")
		return
	}

	zap.L().With(zap.String("assetId", listing.AssetId)).Info("ActionIndexer: Index delisting")

	listing.Active = false
	i.elastic.AddUpdateRequest(elastic_search.ListingIndex.Get(), listing, elastic_search.ListingRemove)
	i.elastic.AddIndexRequest(elastic_search.ActionIndex.Get(), factory.CreateDelistingAction(listing, time.Now()), elastic_search.ActionCreate)
	i.elastic.Persist()
}

func (i actionIndexer) IndexSale(msg interface{}) {
	sale, ok := msg.(entity.Sale)
	if !ok {
		zap.L().Error("ActionIndexer: Unexpected sale payload")
		return
	}

	zap.L().With(
		zap.Uint64("saleId", sale.SaleId),
		zap.String("assetId", sale.AssetId),
		zap.String("from", sale.Seller),
		zap.String("to", sale.Buyer),
		zap.Uint64("price", sale.Price),
		zap.Uint64("fee", sale.Fee),
	).Info("ActionIndexer: Index sale")

	i.elastic.AddIndexRequest(elastic_search.SaleIndex.Get(), sale, elastic_search.SaleCreate)
	i.elastic.AddIndexRequest(elastic_search.ActionIndex.Get(), factory.CreateSaleAction(sale, time.Now()), elastic_search.ActionCreate)
	i.elastic.Persist()
}

func (i actionIndexer) IndexIncident(msg interface{}) {
	incident, ok := msg.(dev.Incident)
	if !ok {
		zap.L().Error("ActionIndexer: Unexpected incident payload")
		return
	}

	zap.L().With(
		zap.String("component", incident.Component),
		zap.String("name", incident.Name),
	).Warn("ActionIndexer: Index incident")

	i.elastic.Save(elastic_search.IncidentIndex.Get(), incident)
}
