package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"strconv"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/nftbay/marketplace-engine/internal/config"
	"github.com/nftbay/marketplace-engine/internal/config/di"
	"github.com/nftbay/marketplace-engine/internal/entity"
	"github.com/nftbay/marketplace-engine/internal/messenger"
	"github.com/nftbay/marketplace-engine/internal/repository"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

var (
	container        *di.Container
	saleRepo         repository.SaleRepository
	actionRepo       repository.ActionRepository
	messengerService messenger.MessageService
)

func main() {
	config.Init("cli")

	container, _ = di.NewContainer()
	saleRepo = container.GetSaleRepo()
	actionRepo = container.GetActionRepo()
	messengerService = container.GetMessenger()

	apiFlag := &cli.StringFlag{
		Name:  "api",
		Value: fmt.Sprintf("http://127.0.0.1:%s", config.Get().ApiPort),
		Usage: "Base url of the marketplace api",
	}

	app := &cli.App{
		Commands: []*cli.Command{
			{
				Name:   "sale",
				Usage:  "Show a sale by its id",
				Action: showSale,
			},
			{
				Name:   "sales",
				Usage:  "List sales for an asset",
				Action: listSales,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset", Value: "", Usage: "Asset id to filter on"},
					&cli.IntFlag{Name: "size", Value: 25, Usage: "Page size"},
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
				},
			},
			{
				Name:   "actions",
				Usage:  "List marketplace actions for an asset",
				Action: listActions,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "asset", Value: "", Usage: "Asset id to filter on"},
					&cli.IntFlag{Name: "size", Value: 25, Usage: "Page size"},
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
				},
			},
			{
				Name:   "show-listing",
				Usage:  "Show the live listing for an asset",
				Action: showListing,
				Flags:  []cli.Flag{apiFlag},
			},
			{
				Name:   "set-fee",
				Usage:  "Update the marketplace fee percentage",
				Action: setFee,
				Flags: []cli.Flag{
					apiFlag,
					&cli.StringFlag{Name: "caller", Value: "", Usage: "Caller address, defaults to FEE_OWNER"},
				},
			},
			{
				Name:   "reindex",
				Usage:  "Drop and recreate the elastic indices",
				Action: reindex,
			},
			{
				Name:   "queues",
				Usage:  "Show notification queue sizes",
				Action: showQueues,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start CLI")
	}
}

func showSale(c *cli.Context) error {
	saleId, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		zap.L().Error("No sale id provided")
		return nil
	}

	sale, err := saleRepo.GetSale(saleId)
	if err != nil {
		zap.S().With(zap.Error(err)).Errorf("Failed to find sale %d", saleId)
		return nil
	}

	fmt.Printf("Sale %d: asset %s, %s -> %s, price %d, fee %d\n",
		sale.SaleId, sale.AssetId, sale.Seller, sale.Buyer, sale.Price, sale.Fee)

	return nil
}

func listSales(c *cli.Context) error {
	assetId := c.String("asset")
	if assetId == "" {
		zap.L().Error("No asset provided")
		return nil
	}

	sales, total, err := saleRepo.GetSalesForAsset(assetId, c.Int("size"), c.Int("page"))
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to get sales")
		return err
	}

	zap.S().Infof("Found %d sales", total)
	for _, sale := range sales {
		fmt.Printf("Sale %d: %s -> %s, price %d, fee %d\n",
			sale.SaleId, sale.Seller, sale.Buyer, sale.Price, sale.Fee)
	}

	return nil
}

func listActions(c *cli.Context) error {
	assetId := c.String("asset")
	if assetId == "" {
		zap.L().Error("No asset provided")
		return nil
	}

	actions, total, err := actionRepo.GetActionsForAsset(assetId, c.Int("size"), c.Int("page"))
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to get actions")
		return err
	}

	zap.S().Infof("Found %d actions", total)
	for _, action := range actions {
		fmt.Printf("%s %s: from %s to %s, price %d, fee %d\n",
			action.OccurredAt.Format("2006-01-02 15:04:05"), action.Action, action.From, action.To, action.Price, action.Fee)
	}

	return nil
}

func showListing(c *cli.Context) error {
	assetId := c.Args().First()
	if assetId == "" {
		zap.L().Error("No asset provided")
		return nil
	}

	listing, err := fetchListing(apiClient(), c.String("api"), assetId)
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to get listing")
		return err
	}

	if !listing.Active {
		fmt.Printf("No active listing for %s\n", assetId)
		return nil
	}

	fmt.Printf("Listing %s: seller %s, price %d\n", listing.AssetId, listing.Seller, listing.Price)

	return nil
}

func setFee(c *cli.Context) error {
	pct, err := strconv.ParseUint(c.Args().First(), 10, 32)
	if err != nil {
		zap.L().Error("No fee percentage provided")
		return nil
	}

	caller := c.String("caller")
	if caller == "" {
		caller = config.Get().FeeOwner
	}

	applied, err := putFee(apiClient(), c.String("api"), caller, uint(pct))
	if err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to set fee")
		return err
	}

	fmt.Printf("Fee percentage: %d\n", applied)

	return nil
}

func reindex(c *cli.Context) error {
	_ = os.Setenv("REINDEX", "true")
	container.GetElastic().InstallMappings()

	fmt.Println("Indices recreated")

	return nil
}

func showQueues(c *cli.Context) error {
	items := []messenger.Item{
		messenger.ListingCreated,
		messenger.ListingUpdated,
		messenger.ListingRemoved,
		messenger.NftSold,
		messenger.AssetReceived,
	}

	for _, item := range items {
		size, err := messengerService.GetQueueSize(item)
		if err != nil {
			zap.L().With(zap.Error(err), zap.String("queue", string(item))).Error("Could not get the queue size")
			continue
		}
		fmt.Printf("%s: %d\n", item, *size)
	}

	return nil
}

func apiClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil

	return client
}

func fetchListing(client *retryablehttp.Client, apiUrl, assetId string) (entity.Listing, error) {
	resp, err := client.Get(fmt.Sprintf("%s/listings/%s", apiUrl, assetId))
	if err != nil {
		return entity.Listing{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entity.Listing{}, fmt.Errorf("api returned status %d", resp.StatusCode)
	}

	var listing entity.Listing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return entity.Listing{}, err
	}

	return listing, nil
}

func putFee(client *retryablehttp.Client, apiUrl, caller string, pct uint) (uint, error) {
	body, err := json.Marshal(map[string]uint{"percentage": pct})
	if err != nil {
		return 0, err
	}

	req, err := retryablehttp.NewRequest("PUT", fmt.Sprintf("%s/fee", apiUrl), body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("X-Caller-Address", caller)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := ioutil.ReadAll(resp.Body)
		return 0, fmt.Errorf("api returned status %d: %s", resp.StatusCode, msg)
	}

	var applied struct {
		Percentage uint `json:"percentage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&applied); err != nil {
		return 0, err
	}

	return applied.Percentage, nil
}
