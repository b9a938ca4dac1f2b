package marketplace

import (
	"fmt"
	"math/big"

	"github.com/nftbay/marketplace-engine/internal/dev"
	"github.com/nftbay/marketplace-engine/internal/entity"
	"github.com/nftbay/marketplace-engine/internal/event"
	"github.com/nftbay/marketplace-engine/internal/ledger"
	"github.com/nftbay/marketplace-engine/internal/payments"
	"github.com/nftbay/marketplace-engine/internal/registry"
	"github.com/nu7hatch/gouuid"
	"go.uber.org/zap"
)

// Engine owns the listing lifecycle, atomic settlement, fee configuration,
// and the sale ledger. Asset ownership lives in the registry and is queried,
// never cached beyond a single operation.
type Engine interface {
	CreateListing(assetId string, price uint64, caller string) error
	UpdateListing(assetId string, newPrice uint64, caller string) error
	RemoveListing(assetId string, caller string) error
	BuyNFT(assetId, buyer string, payment uint64) (entity.Sale, error)

	SetFeePercentage(value uint, caller string) error
	GetFeePercentage() uint

	GetListing(assetId string) entity.Listing
	GetSale(saleId uint64) entity.Sale
	RetainedBalance() uint64

	AcknowledgeReceipt(operator, from, assetId string, data []byte) string
}

type marketplaceEngine struct {
	registry registry.Service
	bank     payments.Service

	feeOwner      string
	feePercentage uint

	listings *ledger.ListingStore
	sales    *ledger.SaleLedger
	retained uint64
}

func NewEngine(registrySvc registry.Service, bank payments.Service, feeOwner string, feePercentage uint) (Engine, error) {
	if registrySvc == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrInvalidConstruction)
	}
	if bank == nil {
		return nil, fmt.Errorf("%w: payment service is required", ErrInvalidConstruction)
	}
	if feePercentage > 100 {
		return nil, fmt.Errorf("%w: fee percentage %d exceeds 100", ErrInvalidConstruction, feePercentage)
	}

	return &marketplaceEngine{
		registry:      registrySvc,
		bank:          bank,
		feeOwner:      feeOwner,
		feePercentage: feePercentage,
		listings:      ledger.NewListingStore(),
		sales:         ledger.NewSaleLedger(),
	}, nil
}

func (e *marketplaceEngine) CreateListing(assetId string, price uint64, caller string) error {
	owner, err := e.registry.OwnerOf(assetId)
	if err != nil {
		return fmt.Errorf("registry owner lookup: %w", err)
	}
	if owner != caller {
		return ErrNotOwner
	}
	if price == 0 {
		return ErrInvalidPrice
	}
	if e.listings.Get(assetId).Active {
		return ErrAlreadyListed
	}

	listing := entity.Listing{
		AssetId: assetId,
		Seller:  caller,
		Price:   price,
		Active:  true,
	}
	e.listings.Put(listing)

	zap.L().With(
		zap.String("assetId", assetId),
		zap.String("seller", caller),
		zap.Uint64("price", price),
	).Info("Marketplace listing")

	event.EmitEvent(event.ListingCreatedEvent, listing)

	return nil
}

func (e *marketplaceEngine) UpdateListing(assetId string, newPrice uint64, caller string) error {
	owner, err := e.registry.OwnerOf(assetId)
	if err != nil {
		return fmt.Errorf("registry owner lookup: %w", err)
	}
	if owner != caller {
		return ErrNotOwner
	}
	if newPrice == 0 {
		return ErrInvalidPrice
	}

	listing := e.listings.Get(assetId)
	if !listing.Active {
		return ErrNotListed
	}

	listing.Price = newPrice
	e.listings.Put(listing)

	zap.L().With(
		zap.String("assetId", assetId),
		zap.String("seller", listing.Seller),
		zap.Uint64("price", newPrice),
	).Info("Marketplace listing updated")

	event.EmitEvent(event.ListingUpdatedEvent, listing)

	return nil
}

func (e *marketplaceEngine) RemoveListing(assetId string, caller string) error {
	owner, err := e.registry.OwnerOf(assetId)
	if err != nil {
		return fmt.Errorf("registry owner lookup: %w", err)
	}
	if owner != caller {
		return ErrNotOwner
	}

	listing := e.listings.Get(assetId)
	if !listing.Active {
		return ErrNotListed
	}

	e.listings.Delete(assetId)

	zap.L().With(
		zap.String("assetId", assetId),
		zap.String("seller", listing.Seller),
	).Info("Marketplace delisting")

	event.EmitEvent(event.ListingRemovedEvent, listing)

	return nil
}

// BuyNFT settles a listing: asset and payment move together or not at all.
// The listing is closed before the seller is paid, so a reentrant BuyNFT
// triggered from inside disbursement observes ErrNotListed.
func (e *marketplaceEngine) BuyNFT(assetId, buyer string, payment uint64) (entity.Sale, error) {
	listing := e.listings.Get(assetId)
	if !listing.Active {
		return entity.Sale{}, ErrNotListed
	}
	if payment < listing.Price {
		return entity.Sale{}, ErrInsufficientPayment
	}

	// Snapshot before any mutation. Ownership is deliberately not re-checked
	// here; the registry's own authorization check is the guard.
	seller := listing.Seller
	price := listing.Price

	if err := e.registry.Transfer(seller, buyer, assetId); err != nil {
		return entity.Sale{}, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	fee := computeFee(price, e.feePercentage)
	sellerAmount := price - fee

	sale := e.sales.Append(assetId, seller, buyer, price, fee)
	e.listings.Delete(assetId)

	if err := e.bank.Disburse(seller, sellerAmount); err != nil {
		e.unwindSettlement(listing, sale, buyer)
		return entity.Sale{}, fmt.Errorf("%w: %v", ErrDisbursementFailed, err)
	}

	e.retained += payment - price

	zap.L().With(
		zap.Uint64("saleId", sale.SaleId),
		zap.String("assetId", assetId),
		zap.String("from", seller),
		zap.String("to", buyer),
		zap.Uint64("price", price),
		zap.Uint64("fee", fee),
	).Info("Marketplace trade")

	event.EmitEvent(event.NftSoldEvent, sale)

	return sale, nil
}

// unwindSettlement restores the pre-call state after a failed disbursement:
// the sale record, the sale counter, the listing, and the asset itself.
func (e *marketplaceEngine) unwindSettlement(listing entity.Listing, sale entity.Sale, buyer string) {
	if err := e.sales.Revert(sale.SaleId); err != nil {
		incident := dev.NewIncident("marketplace", "settlement.revert", err, map[string]interface{}{
			"saleId":  sale.SaleId,
			"assetId": sale.AssetId,
		})
		zap.L().With(zap.Error(err), zap.Uint64("saleId", sale.SaleId)).Error("Failed to revert sale")

		event.EmitEvent(event.SettlementIncidentEvent, incident)
	}
	e.listings.Put(listing)

	if err := e.registry.Transfer(buyer, listing.Seller, sale.AssetId); err != nil {
		incident := dev.NewIncident("marketplace", "settlement.compensation", err, map[string]interface{}{
			"assetId": sale.AssetId,
			"seller":  listing.Seller,
			"buyer":   buyer,
		})
		zap.L().With(
			zap.Error(err),
			zap.String("assetId", sale.AssetId),
		).Error("Failed to compensate asset transfer")

		event.EmitEvent(event.SettlementIncidentEvent, incident)
	}
}

func (e *marketplaceEngine) SetFeePercentage(value uint, caller string) error {
	if caller != e.feeOwner {
		return ErrUnauthorized
	}
	if value > 100 {
		return ErrInvalidFee
	}

	e.feePercentage = value

	zap.L().With(zap.Uint("feePercentage", value)).Info("Marketplace fee updated")

	return nil
}

func (e *marketplaceEngine) GetFeePercentage() uint {
	return e.feePercentage
}

func (e *marketplaceEngine) GetListing(assetId string) entity.Listing {
	return e.listings.Get(assetId)
}

func (e *marketplaceEngine) GetSale(saleId uint64) entity.Sale {
	return e.sales.Get(saleId)
}

// RetainedBalance reports value kept by the engine from overpayments.
func (e *marketplaceEngine) RetainedBalance() uint64 {
	return e.retained
}

// AcknowledgeReceipt accepts a pushed-transfer notification from the
// registry pattern. The acknowledgement is unconditional.
func (e *marketplaceEngine) AcknowledgeReceipt(operator, from, assetId string, data []byte) string {
	token, _ := uuid.NewV4()

	zap.L().With(
		zap.String("operator", operator),
		zap.String("from", from),
		zap.String("assetId", assetId),
		zap.Int("dataLen", len(data)),
	).Debug("Marketplace asset receipt")

	return token.String()
}

// computeFee is floor(price * pct / 100), through big.Int so the product
// cannot overflow uint64.
func computeFee(price uint64, pct uint) uint64 {
	fee := new(big.Int).Mul(new(big.Int).SetUint64(price), new(big.Int).SetUint64(uint64(pct)))
	fee.Div(fee, big.NewInt(100))

	return fee.Uint64()
}
