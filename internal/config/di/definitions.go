package di

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/nftbay/marketplace-engine/internal/config"
	"github.com/nftbay/marketplace-engine/internal/elastic_search"
	"github.com/nftbay/marketplace-engine/internal/indexer"
	"github.com/nftbay/marketplace-engine/internal/marketplace"
	"github.com/nftbay/marketplace-engine/internal/messenger"
	"github.com/nftbay/marketplace-engine/internal/payments"
	"github.com/nftbay/marketplace-engine/internal/registry"
	"github.com/nftbay/marketplace-engine/internal/repository"
	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"
)

var Definitions = []di.Def{
	{
		Name: "elastic",
		Build: func(ctn di.Container) (interface{}, error) {
			elastic, err := elastic_search.New()
			if err != nil {
				zap.L().With(zap.Error(err)).Fatal("Failed to start ES")
			}

			return elastic, nil
		},
	},
	{
		Name: "registry",
		Build: func(ctn di.Container) (interface{}, error) {
			p := registry.NewProvider(config.Get().Registry.Url)
			return registry.NewRegistryService(p), nil
		},
	},
	{
		Name: "payments",
		Build: func(ctn di.Container) (interface{}, error) {
			return payments.NewPaymentService(config.Get().Payments.Url, config.Get().Payments.Timeout), nil
		},
	},
	{
		Name: "engine",
		Build: func(ctn di.Container) (interface{}, error) {
			return marketplace.NewEngine(
				ctn.Get("registry").(registry.Service),
				ctn.Get("payments").(payments.Service),
				config.Get().FeeOwner,
				config.Get().FeePercentage,
			)
		},
	},
	{
		Name: "action.indexer",
		Build: func(ctn di.Container) (interface{}, error) {
			return indexer.NewActionIndexer(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "sale.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewSaleRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "action.repo",
		Build: func(ctn di.Container) (interface{}, error) {
			return repository.NewActionRepository(ctn.Get("elastic").(elastic_search.Index)), nil
		},
	},
	{
		Name: "messenger",
		Build: func(ctn di.Container) (interface{}, error) {
			sess := session.Must(session.NewSession(&aws.Config{
				Region: aws.String(config.Get().Aws.Region),
				Credentials: credentials.NewStaticCredentials(
					config.Get().Aws.AccessKey,
					config.Get().Aws.SecretKey,
					"",
				),
			}))

			return messenger.NewMessenger(sqs.New(sess)), nil
		},
	},
	{
		Name: "notifier",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewNotifier(ctn.Get("messenger").(messenger.MessageService)), nil
		},
	},
	{
		Name: "receipt.subscriber",
		Build: func(ctn di.Container) (interface{}, error) {
			return messenger.NewReceiptSubscriber(
				ctn.Get("messenger").(messenger.MessageService),
				ctn.Get("engine").(marketplace.Engine),
			), nil
		},
	},
}
