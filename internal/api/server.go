package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nftbay/marketplace-engine/internal/marketplace"
	"go.uber.org/zap"
)

const callerHeader = "X-Caller-Address"

type Server struct {
	engine marketplace.Engine
}

func NewServer(engine marketplace.Engine) Server {
	return Server{engine}
}

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleHomepage).Methods("GET")
	r.HandleFunc("/listings", s.handleCreateListing).Methods("POST")
	r.HandleFunc("/listings/{assetId}", s.handleGetListing).Methods("GET")
	r.HandleFunc("/listings/{assetId}", s.handleUpdateListing).Methods("PUT")
	r.HandleFunc("/listings/{assetId}", s.handleRemoveListing).Methods("DELETE")
	r.HandleFunc("/listings/{assetId}/buy", s.handleBuy).Methods("POST")
	r.HandleFunc("/sales/{saleId}", s.handleGetSale).Methods("GET")
	r.HandleFunc("/fee", s.handleGetFee).Methods("GET")
	r.HandleFunc("/fee", s.handleSetFee).Methods("PUT")
	r.HandleFunc("/receipts", s.handleReceipt).Methods("POST")

	return r
}

func (s Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	_, _ = fmt.Fprintf(w, "NftBay Marketplace Engine")
}

type createListingRequest struct {
	AssetId string `json:"assetId"`
	Price   uint64 `json:"price"`
}

func (s Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := caller(w, r)
	if !ok {
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.engine.CreateListing(req.AssetId, req.Price, caller); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	writeJson(w, s.engine.GetListing(req.AssetId))
}

func (s Server) handleGetListing(w http.ResponseWriter, r *http.Request) {
	assetId := mux.Vars(r)["assetId"]
	writeJson(w, s.engine.GetListing(assetId))
}

type updateListingRequest struct {
	Price uint64 `json:"price"`
}

func (s Server) handleUpdateListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := caller(w, r)
	if !ok {
		return
	}

	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	assetId := mux.Vars(r)["assetId"]
	if err := s.engine.UpdateListing(assetId, req.Price, caller); err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, s.engine.GetListing(assetId))
}

func (s Server) handleRemoveListing(w http.ResponseWriter, r *http.Request) {
	caller, ok := caller(w, r)
	if !ok {
		return
	}

	assetId := mux.Vars(r)["assetId"]
	if err := s.engine.RemoveListing(assetId, caller); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type buyRequest struct {
	Payment uint64 `json:"payment"`
}

func (s Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	buyer, ok := caller(w, r)
	if !ok {
		return
	}

	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	assetId := mux.Vars(r)["assetId"]
	sale, err := s.engine.BuyNFT(assetId, buyer, req.Payment)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, sale)
}

func (s Server) handleGetSale(w http.ResponseWriter, r *http.Request) {
	saleId, err := strconv.ParseUint(mux.Vars(r)["saleId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid sale id", http.StatusBadRequest)
		return
	}

	writeJson(w, s.engine.GetSale(saleId))
}

type feeResponse struct {
	Percentage uint `json:"percentage"`
}

func (s Server) handleGetFee(w http.ResponseWriter, r *http.Request) {
	writeJson(w, feeResponse{Percentage: s.engine.GetFeePercentage()})
}

func (s Server) handleSetFee(w http.ResponseWriter, r *http.Request) {
	caller, ok := caller(w, r)
	if !ok {
		return
	}

	var req feeResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.engine.SetFeePercentage(req.Percentage, caller); err != nil {
		writeError(w, err)
		return
	}

	writeJson(w, feeResponse{Percentage: s.engine.GetFeePercentage()})
}

type receiptRequest struct {
	Operator string `json:"operator"`
	From     string `json:"from"`
	AssetId  string `json:"assetId"`
	Data     []byte `json:"data"`
}

type receiptResponse struct {
	Token string `json:"token"`
}

func (s Server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	token := s.engine.AcknowledgeReceipt(req.Operator, req.From, req.AssetId, req.Data)
	writeJson(w, receiptResponse{Token: token})
}

func caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		http.Error(w, "Caller address is required", http.StatusUnauthorized)
		return "", false
	}

	return caller, true
}

func writeJson(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().With(zap.Error(err)).Error("Api: Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), statusFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, marketplace.ErrNotOwner), errors.Is(err, marketplace.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, marketplace.ErrInvalidPrice),
		errors.Is(err, marketplace.ErrInvalidFee),
		errors.Is(err, marketplace.ErrInsufficientPayment):
		return http.StatusBadRequest
	case errors.Is(err, marketplace.ErrAlreadyListed):
		return http.StatusConflict
	case errors.Is(err, marketplace.ErrNotListed):
		return http.StatusNotFound
	case errors.Is(err, marketplace.ErrTransferFailed), errors.Is(err, marketplace.ErrDisbursementFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
