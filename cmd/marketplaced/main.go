package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nftbay/marketplace-engine/internal/api"
	"github.com/nftbay/marketplace-engine/internal/config"
	"github.com/nftbay/marketplace-engine/internal/config/di"
	"github.com/nftbay/marketplace-engine/internal/event"
	"go.uber.org/zap"
)

var container *di.Container

func main() {
	config.Init("marketplaced")

	var err error
	container, err = di.NewContainer()
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to build container")
	}

	container.GetElastic().InstallMappings()

	go health()

	event.AddEventListener(event.ListingCreatedEvent, container.GetActionIndexer().IndexListing)
	event.AddEventListener(event.ListingUpdatedEvent, container.GetActionIndexer().IndexListingUpdate)
	event.AddEventListener(event.ListingRemovedEvent, container.GetActionIndexer().IndexDelisting)
	event.AddEventListener(event.NftSoldEvent, container.GetActionIndexer().IndexSale)
	event.AddEventListener(event.SettlementIncidentEvent, container.GetActionIndexer().IndexIncident)

	event.AddEventListener(event.ListingCreatedEvent, container.GetNotifier().NotifyListingCreated)
	event.AddEventListener(event.ListingUpdatedEvent, container.GetNotifier().NotifyListingUpdated)
	event.AddEventListener(event.ListingRemovedEvent, container.GetNotifier().NotifyListingRemoved)
	event.AddEventListener(event.NftSoldEvent, container.GetNotifier().NotifyNftSold)

	go container.GetReceiptSubscriber().Run()

	zap.L().With(zap.String("port", config.Get().ApiPort)).Info("Marketplace Started")

	server := api.NewServer(container.GetEngine())
	if err := http.ListenAndServe(":"+config.Get().ApiPort, server.Router()); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Failed to start marketplace api")
	}
}

func health() {
	if err := http.ListenAndServe(":"+config.Get().HealthPort, healthRouter()); err != nil {
		zap.L().With(zap.Error(err)).Error("Failed to start health server")
	}
}

func healthRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "OK")
	}).Methods("GET")

	return r
}
