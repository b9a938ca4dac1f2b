package event

type Type string

const (
	ListingCreatedEvent     Type = "ListingCreatedEvent"
	ListingUpdatedEvent     Type = "ListingUpdatedEvent"
	ListingRemovedEvent     Type = "ListingRemovedEvent"
	NftSoldEvent            Type = "NftSoldEvent"
	SettlementIncidentEvent Type = "SettlementIncidentEvent"
)
