package repository

import (
	"encoding/json"
	"errors"

	"github.com/nftbay/marketplace-engine/internal/elastic_search"
	"github.com/nftbay/marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

var (
	ErrSaleNotFound = errors.New("sale not found")
)

type SaleRepository interface {
	GetSale(saleId uint64) (entity.Sale, error)
	GetSalesForAsset(assetId string, size, page int) ([]entity.Sale, int64, error)
	GetBestSaleId() (uint64, error)
}

type saleRepository struct {
	elastic elastic_search.Index
}

func NewSaleRepository(elastic elastic_search.Index) SaleRepository {
	return saleRepository{elastic}
}

func (r saleRepository) GetSale(saleId uint64) (entity.Sale, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(elastic.NewTermQuery("saleId", saleId)).
		Size(1))

	return r.findOne(result, err)
}

func (r saleRepository) GetSalesForAsset(assetId string, size, page int) ([]entity.Sale, int64, error) {
	from := size * (page - 1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Query(elastic.NewTermQuery("assetId.keyword", assetId)).
		Sort("saleId", false).
		From(from).
		Size(size))

	return r.findMany(result, err)
}

func (r saleRepository) GetBestSaleId() (uint64, error) {
	result, err := search(r.elastic.GetClient().
		Search(elastic_search.SaleIndex.Get()).
		Sort("saleId", false).
		Size(1))

	sale, err := r.findOne(result, err)
	if err != nil {
		if errors.Is(err, ErrSaleNotFound) {
			return 0, nil
		}
		return 0, err
	}

	return sale.SaleId, nil
}

func (r saleRepository) findOne(results *elastic.SearchResult, err error) (entity.Sale, error) {
	if err != nil {
		return entity.Sale{}, err
	}

	if len(results.Hits.Hits) == 0 {
		return entity.Sale{}, ErrSaleNotFound
	}

	var sale entity.Sale
	hit := results.Hits.Hits[0]
	err = json.Unmarshal(hit.Source, &sale)

	return sale, err
}

func (r saleRepository) findMany(results *elastic.SearchResult, err error) ([]entity.Sale, int64, error) {
	sales := make([]entity.Sale, 0)

	if err != nil {
		return sales, 0, err
	}

	for _, hit := range results.Hits.Hits {
		var sale entity.Sale
		if err := json.Unmarshal(hit.Source, &sale); err == nil {
			sales = append(sales, sale)
		}
	}

	return sales, results.TotalHits(), nil
}
