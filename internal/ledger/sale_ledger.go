package ledger

import (
	"errors"
	"sort"

	"github.com/nftbay/marketplace-engine/internal/entity"
)

var ErrUnknownSale = errors.New("sale is not in the ledger")

// SaleLedger is the append-only history of completed settlements. Sale ids
// start at 1 and increase by one. An id freed by a revert is handed out
// again before a new one is minted, so the set of recorded ids stays gapless
// even when nested settlements unwind out of order.
type SaleLedger struct {
	sales      map[uint64]entity.Sale
	nextSaleId uint64
	freed      []uint64
}

func NewSaleLedger() *SaleLedger {
	return &SaleLedger{
		sales:      make(map[uint64]entity.Sale),
		nextSaleId: 1,
	}
}

// Append records the sale under the lowest available id.
func (l *SaleLedger) Append(assetId, seller, buyer string, price, fee uint64) entity.Sale {
	var saleId uint64
	if len(l.freed) > 0 {
		saleId = l.freed[0]
		l.freed = l.freed[1:]
	} else {
		saleId = l.nextSaleId
		l.nextSaleId++
	}

	sale := entity.Sale{
		SaleId:  saleId,
		AssetId: assetId,
		Seller:  seller,
		Buyer:   buyer,
		Price:   price,
		Fee:     fee,
	}

	l.sales[sale.SaleId] = sale

	return sale
}

func (l *SaleLedger) Get(saleId uint64) entity.Sale {
	return l.sales[saleId]
}

// Revert removes a sale recorded earlier in the same operation when
// settlement has to unwind. The final id is released back to the counter;
// any other id is queued for reuse by the next Append.
func (l *SaleLedger) Revert(saleId uint64) error {
	if _, ok := l.sales[saleId]; !ok {
		return ErrUnknownSale
	}

	delete(l.sales, saleId)

	if saleId != l.nextSaleId-1 {
		i := sort.Search(len(l.freed), func(i int) bool { return l.freed[i] >= saleId })
		l.freed = append(l.freed, 0)
		copy(l.freed[i+1:], l.freed[i:])
		l.freed[i] = saleId
		return nil
	}

	l.nextSaleId--
	for n := len(l.freed); n > 0 && l.freed[n-1] == l.nextSaleId-1; n = len(l.freed) {
		l.freed = l.freed[:n-1]
		l.nextSaleId--
	}

	return nil
}
