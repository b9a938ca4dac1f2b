package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nftbay/marketplace-engine/internal/entity"
	"github.com/nftbay/marketplace-engine/internal/marketplace"
)

type fakeEngine struct {
	createErr error
	updateErr error
	removeErr error
	buyErr    error
	feeErr    error

	listing entity.Listing
	sale    entity.Sale
	fee     uint

	lastCaller string
	lastAsset  string
	lastAmount uint64
}

func (f *fakeEngine) CreateListing(assetId string, price uint64, caller string) error {
	f.lastAsset, f.lastAmount, f.lastCaller = assetId, price, caller
	return f.createErr
}

func (f *fakeEngine) UpdateListing(assetId string, newPrice uint64, caller string) error {
	f.lastAsset, f.lastAmount, f.lastCaller = assetId, newPrice, caller
	return f.updateErr
}

func (f *fakeEngine) RemoveListing(assetId string, caller string) error {
	f.lastAsset, f.lastCaller = assetId, caller
	return f.removeErr
}

func (f *fakeEngine) BuyNFT(assetId, buyer string, payment uint64) (entity.Sale, error) {
	f.lastAsset, f.lastAmount, f.lastCaller = assetId, payment, buyer
	if f.buyErr != nil {
		return entity.Sale{}, f.buyErr
	}
	return f.sale, nil
}

func (f *fakeEngine) SetFeePercentage(value uint, caller string) error {
	f.lastCaller = caller
	if f.feeErr != nil {
		return f.feeErr
	}
	f.fee = value
	return nil
}

func (f *fakeEngine) GetFeePercentage() uint                   { return f.fee }
func (f *fakeEngine) GetListing(assetId string) entity.Listing { return f.listing }
func (f *fakeEngine) GetSale(saleId uint64) entity.Sale        { return f.sale }
func (f *fakeEngine) RetainedBalance() uint64                  { return 0 }

func (f *fakeEngine) AcknowledgeReceipt(operator, from, assetId string, data []byte) string {
	return "token-1"
}

func doRequest(t *testing.T, engine marketplace.Engine, method, path, caller string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if caller != "" {
		req.Header.Set(callerHeader, caller)
	}

	rec := httptest.NewRecorder()
	NewServer(engine).Router().ServeHTTP(rec, req)

	return rec
}

func TestCreateListingEndpoint(t *testing.T) {
	engine := &fakeEngine{listing: entity.Listing{AssetId: "asset-1", Seller: "alice", Price: 1000, Active: true}}

	rec := doRequest(t, engine, "POST", "/listings", "alice", createListingRequest{AssetId: "asset-1", Price: 1000})

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", rec.Code)
	}
	if engine.lastCaller != "alice" || engine.lastAsset != "asset-1" || engine.lastAmount != 1000 {
		t.Errorf("unexpected engine call %+v", engine)
	}
}

func TestCreateListingRequiresCaller(t *testing.T) {
	rec := doRequest(t, &fakeEngine{}, "POST", "/listings", "", createListingRequest{AssetId: "asset-1", Price: 1000})

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{marketplace.ErrNotOwner, http.StatusForbidden},
		{marketplace.ErrInvalidPrice, http.StatusBadRequest},
		{marketplace.ErrAlreadyListed, http.StatusConflict},
	}

	for _, tt := range tests {
		engine := &fakeEngine{createErr: tt.err}
		rec := doRequest(t, engine, "POST", "/listings", "alice", createListingRequest{AssetId: "asset-1", Price: 1000})

		if rec.Code != tt.status {
			t.Errorf("%v: status = %d, want %d", tt.err, rec.Code, tt.status)
		}
	}
}

func TestBuyEndpoint(t *testing.T) {
	engine := &fakeEngine{sale: entity.Sale{SaleId: 1, AssetId: "asset-1", Seller: "alice", Buyer: "bob", Price: 1000, Fee: 100}}

	rec := doRequest(t, engine, "POST", "/listings/asset-1/buy", "bob", buyRequest{Payment: 1000})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var sale entity.Sale
	if err := json.NewDecoder(rec.Body).Decode(&sale); err != nil {
		t.Fatal(err)
	}
	if sale != engine.sale {
		t.Errorf("sale = %+v, want %+v", sale, engine.sale)
	}
	if engine.lastCaller != "bob" || engine.lastAmount != 1000 {
		t.Errorf("unexpected engine call %+v", engine)
	}
}

func TestBuyNotListed(t *testing.T) {
	engine := &fakeEngine{buyErr: marketplace.ErrNotListed}

	rec := doRequest(t, engine, "POST", "/listings/asset-1/buy", "bob", buyRequest{Payment: 1000})

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestGetSaleEndpoint(t *testing.T) {
	engine := &fakeEngine{sale: entity.Sale{SaleId: 3, AssetId: "asset-1"}}

	rec := doRequest(t, engine, "GET", "/sales/3", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, engine, "GET", "/sales/notanumber", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFeeEndpoints(t *testing.T) {
	engine := &fakeEngine{fee: 10}

	rec := doRequest(t, engine, "GET", "/fee", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var fee feeResponse
	if err := json.NewDecoder(rec.Body).Decode(&fee); err != nil {
		t.Fatal(err)
	}
	if fee.Percentage != 10 {
		t.Errorf("fee = %d, want 10", fee.Percentage)
	}

	rec = doRequest(t, engine, "PUT", "/fee", "feeOwner", feeResponse{Percentage: 20})
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if engine.fee != 20 {
		t.Errorf("fee = %d, want 20", engine.fee)
	}

	engine.feeErr = marketplace.ErrUnauthorized
	rec = doRequest(t, engine, "PUT", "/fee", "mallory", feeResponse{Percentage: 30})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestReceiptEndpoint(t *testing.T) {
	rec := doRequest(t, &fakeEngine{}, "POST", "/receipts", "", receiptRequest{
		Operator: "registry",
		From:     "alice",
		AssetId:  "asset-1",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp receiptResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Token != "token-1" {
		t.Errorf("token = %s, want token-1", resp.Token)
	}
}
