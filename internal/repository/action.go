package repository

import (
	"encoding/json"

	"github.com/nftbay/marketplace-engine/internal/elastic_search"
	"github.com/nftbay/marketplace-engine/internal/entity"
	"github.com/olivere/elastic/v7"
)

type ActionRepository interface {
	GetActionsForAsset(assetId string, size, page int) ([]entity.MarketplaceAction, int64, error)
}

type actionRepository struct {
	elastic elastic_search.Index
}

func NewActionRepository(elastic elastic_search.Index) ActionRepository {
	return actionRepository{elastic}
}

func (r actionRepository) GetActionsForAsset(assetId string, size, page int) ([]entity.MarketplaceAction, int64, error) {
	from := size * (page - 1)

	result, err := search(r.elastic.GetClient().
		Search(elastic_search.ActionIndex.Get()).
		Query(elastic.NewTermQuery("assetId.keyword", assetId)).
		Sort("occurredAt", false).
		From(from).
		Size(size))

	actions := make([]entity.MarketplaceAction, 0)

	if err != nil {
		return actions, 0, err
	}

	for _, hit := range result.Hits.Hits {
		var action entity.MarketplaceAction
		if err := json.Unmarshal(hit.Source, &action); err == nil {
			actions = append(actions, action)
		}
	}

	return actions, result.TotalHits(), nil
}
