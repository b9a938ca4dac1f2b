package entity

import (
	"fmt"

	"github.com/gosimple/slug"
)

// Sale is the permanent record of one completed settlement. Sales are
// append only, identified by a saleId that starts at 1 and never repeats.
type Sale struct {
	SaleId  uint64 `json:"saleId"`
	AssetId string `json:"assetId"`
	Seller  string `json:"seller"`
	Buyer   string `json:"buyer"`
	Price   uint64 `json:"price"`
	Fee     uint64 `json:"fee"`
}

func (s Sale) Slug() string {
	return CreateSaleSlug(s.SaleId)
}

func CreateSaleSlug(saleId uint64) string {
	return slug.Make(fmt.Sprintf("sale-%d", saleId))
}
