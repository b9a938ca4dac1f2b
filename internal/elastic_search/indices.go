package elastic_search

import (
	"fmt"

	"github.com/nftbay/marketplace-engine/internal/config"
)

type Indices string

var (
	ListingIndex  Indices = "listing"
	SaleIndex     Indices = "sale"
	ActionIndex   Indices = "action"
	IncidentIndex Indices = "incident"
)

// Sets the network and returns the full string
func (i *Indices) Get() string {
	return fmt.Sprintf("%s.%s.%s", config.Get().Network, config.Get().Index, string(*i))
}
