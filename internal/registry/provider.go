package registry

import (
	"encoding/json"
	"errors"

	"github.com/nftbay/marketplace-engine/internal/config"
	"go.uber.org/zap"
)

type Provider struct {
	client *rpcClient
}

func NewProvider(url string) *Provider {
	client, err := newClient(url, config.Get().Registry.Timeout, config.Get().Registry.Debug)
	if err != nil {
		zap.L().With(zap.Error(err)).Fatal("Registry: Failed to create rpc client")
	}

	return &Provider{client}
}

// GetTokenOwner resolves the current owner of an asset in the registry.
func (p *Provider) GetTokenOwner(assetId string) (string, error) {
	resp, err := p.client.call("Registry.OwnerOf", map[string]string{"assetId": assetId})
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("empty rpc response")
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	var owner string
	if err := json.Unmarshal(resp.Result, &owner); err != nil {
		return "", err
	}

	return owner, nil
}

// TransferToken moves an asset from its current holder to a recipient. The
// registry rejects the call if from is not the holder or the marketplace
// lacks transfer rights.
func (p *Provider) TransferToken(from, to, assetId string) error {
	resp, err := p.client.call("Registry.TransferFrom", map[string]string{
		"from":    from,
		"to":      to,
		"assetId": assetId,
	})
	if err != nil {
		return err
	}
	if resp == nil {
		return errors.New("empty rpc response")
	}
	if resp.Error != nil {
		return resp.Error
	}

	return nil
}
