package registry

import (
	"go.uber.org/zap"
)

// Service is the asset registry consumed by the marketplace. The registry is
// the sole source of truth for asset ownership; owners are never cached.
type Service interface {
	OwnerOf(assetId string) (string, error)
	Transfer(from, to, assetId string) error
}

type service struct {
	provider *Provider
}

func NewRegistryService(provider *Provider) Service {
	return service{provider}
}

func (s service) OwnerOf(assetId string) (string, error) {
	return s.provider.GetTokenOwner(assetId)
}

func (s service) Transfer(from, to, assetId string) error {
	zap.L().With(
		zap.String("assetId", assetId),
		zap.String("from", from),
		zap.String("to", to),
	).Debug("Registry: Transfer")

	return s.provider.TransferToken(from, to, assetId)
}
