package di

import (
	"github.com/nftbay/marketplace-engine/internal/elastic_search"
	"github.com/nftbay/marketplace-engine/internal/indexer"
	"github.com/nftbay/marketplace-engine/internal/marketplace"
	"github.com/nftbay/marketplace-engine/internal/messenger"
	"github.com/nftbay/marketplace-engine/internal/repository"
	"github.com/sarulabs/di/v2"
)

type Container struct {
	ctn di.Container
}

func NewContainer() (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}

	if err := builder.Add(Definitions...); err != nil {
		return nil, err
	}

	return &Container{ctn: builder.Build()}, nil
}

func (c *Container) GetElastic() elastic_search.Index {
	return c.ctn.Get("elastic").(elastic_search.Index)
}

func (c *Container) GetEngine() marketplace.Engine {
	return c.ctn.Get("engine").(marketplace.Engine)
}

func (c *Container) GetActionIndexer() indexer.ActionIndexer {
	return c.ctn.Get("action.indexer").(indexer.ActionIndexer)
}

func (c *Container) GetSaleRepo() repository.SaleRepository {
	return c.ctn.Get("sale.repo").(repository.SaleRepository)
}

func (c *Container) GetActionRepo() repository.ActionRepository {
	return c.ctn.Get("action.repo").(repository.ActionRepository)
}

func (c *Container) GetMessenger() messenger.MessageService {
	return c.ctn.Get("messenger").(messenger.MessageService)
}

func (c *Container) GetNotifier() messenger.Notifier {
	return c.ctn.Get("notifier").(messenger.Notifier)
}

func (c *Container) GetReceiptSubscriber() messenger.Subscriber {
	return c.ctn.Get("receipt.subscriber").(messenger.Subscriber)
}
