package idpfactory

import (
	"fmt"

	"github.com/openshelf/library-server-go/idp"
	"github.com/openshelf/library-server-go/idp/asgardeo"
)

// FactoryConfig holds everything needed to construct a provider client.
type FactoryConfig struct {
	ProviderType idp.ProviderType
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// NewIdpAPIProvider builds the identity provider client selected by
// ProviderType. Asgardeo is the only provider wired in today.
func NewIdpAPIProvider(cfg FactoryConfig) (idp.IdentityProviderAPI, error) {
	switch cfg.ProviderType {
	case idp.ProviderAsgardeo:
		return asgardeo.NewClient(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes), nil
	default:
		return nil, fmt.Errorf("unsupported identity provider type: %s", cfg.ProviderType)
	}
}
